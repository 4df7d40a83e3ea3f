// Copyright 2025 Tuff Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repo

import (
	"time"

	"github.com/tuff-sh/tuffhub/internal/registry/model"
)

func (r *Repo) CreatePlugin(p *model.Plugin) error {
	return wrapErr(r.Ctx.DBSession().Table(model.Plugin{}.TableName()).Create(p).Error)
}

func (r *Repo) GetPluginById(id string) (*model.Plugin, error) {
	var plugin model.Plugin
	err := r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Where("id = ?", id).
		First(&plugin).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &plugin, nil
}

func (r *Repo) GetPluginBySlug(slug string) (*model.Plugin, error) {
	var plugin model.Plugin
	err := r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Where("slug = ?", slug).
		First(&plugin).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &plugin, nil
}

func (r *Repo) ListPlugins() ([]model.Plugin, error) {
	var plugins []model.Plugin
	err := r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Order("created_at DESC, id DESC").
		Find(&plugins).Error
	return plugins, wrapErr(err)
}

func (r *Repo) ListPluginsByOwner(userId string) ([]model.Plugin, error) {
	var plugins []model.Plugin
	err := r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Where("owner_user_id = ?", userId).
		Order("created_at DESC, id DESC").
		Find(&plugins).Error
	return plugins, wrapErr(err)
}

func (r *Repo) CountPluginsByOwner(userId string) (int64, error) {
	var count int64
	err := r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Where("owner_user_id = ?", userId).
		Count(&count).Error
	return count, wrapErr(err)
}

func (r *Repo) UpdatePlugin(p *model.Plugin) error {
	return wrapErr(r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Where("id = ?", p.Id).
		Save(p).Error)
}

func (r *Repo) DeletePlugin(id string) error {
	return wrapErr(r.Ctx.DBSession().Table(model.Plugin{}.TableName()).
		Where("id = ?", id).
		Delete(&model.Plugin{}).Error)
}

func (r *Repo) CreateVersion(v *model.PluginVersion) error {
	return wrapErr(r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).Create(v).Error)
}

func (r *Repo) GetVersionById(id string) (*model.PluginVersion, error) {
	var version model.PluginVersion
	err := r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("id = ?", id).
		First(&version).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &version, nil
}

func (r *Repo) GetVersionByPackageKey(key string) (*model.PluginVersion, error) {
	var version model.PluginVersion
	err := r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("package_key = ?", key).
		First(&version).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &version, nil
}

func (r *Repo) GetVersionByTriple(pluginId, version, channel string) (*model.PluginVersion, error) {
	var v model.PluginVersion
	err := r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("plugin_id = ? AND version = ? AND channel = ?", pluginId, version, channel).
		First(&v).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &v, nil
}

func (r *Repo) ListVersionsByPlugin(pluginId string) ([]model.PluginVersion, error) {
	var versions []model.PluginVersion
	err := r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("plugin_id = ?", pluginId).
		Order("created_at DESC, id DESC").
		Find(&versions).Error
	return versions, wrapErr(err)
}

func (r *Repo) UpdateVersion(v *model.PluginVersion) error {
	return wrapErr(r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("id = ?", v.Id).
		Save(v).Error)
}

func (r *Repo) DeleteVersion(id string) error {
	return wrapErr(r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("id = ?", id).
		Delete(&model.PluginVersion{}).Error)
}

// LastPublishedAtByCreator 发布冷却基于该用户所有版本里最新的 created_at
func (r *Repo) LastPublishedAtByCreator(userId string) (*time.Time, error) {
	var version model.PluginVersion
	err := r.Ctx.DBSession().Table(model.PluginVersion{}.TableName()).
		Where("created_by = ?", userId).
		Order("created_at DESC").
		First(&version).Error
	if err != nil {
		if wrapErr(err) == ErrNotFound {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return &version.CreatedAt, nil
}
