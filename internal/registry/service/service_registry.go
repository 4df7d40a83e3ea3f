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

package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tuff-sh/tuffhub/internal/pkg/tpex"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/id"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/storage"
	"gorm.io/datatypes"
)

// Limits 发布侧配额
type Limits struct {
	MaxPluginsPerUser  int
	SubmissionCooldown time.Duration
	MaxPackageSize     int64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPluginsPerUser:  10,
		SubmissionCooldown: 5 * time.Minute,
		MaxPackageSize:     5 * 1024 * 1024,
	}
}

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_.]{1,62}[a-z0-9]$`)

// RegistryService 插件注册中心核心服务
type RegistryService struct {
	ctx    *ctx.Context
	store  repo.Store
	blob   storage.StorageProvider
	limits Limits
}

func NewRegistryService(ctx *ctx.Context, store repo.Store, blob storage.StorageProvider, limits Limits) *RegistryService {
	if limits.MaxPluginsPerUser <= 0 {
		limits.MaxPluginsPerUser = DefaultLimits().MaxPluginsPerUser
	}
	if limits.SubmissionCooldown <= 0 {
		limits.SubmissionCooldown = DefaultLimits().SubmissionCooldown
	}
	if limits.MaxPackageSize <= 0 {
		limits.MaxPackageSize = DefaultLimits().MaxPackageSize
	}
	return &RegistryService{
		ctx:    ctx,
		store:  store,
		blob:   blob,
		limits: limits,
	}
}

// loadViewer 解析访问者身份，userId 为空时按匿名处理
func (s *RegistryService) loadViewer(userId string) (Viewer, error) {
	if userId == "" {
		return Viewer{}, nil
	}
	user, err := s.store.GetUserById(userId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Viewer{}, Forbiddenf("unknown user")
		}
		return Viewer{}, Internal(err)
	}
	orgIds, err := s.store.ListOrgIdsByUser(userId)
	if err != nil {
		return Viewer{}, Internal(err)
	}
	return Viewer{UserId: user.Id, IsAdmin: user.IsAdmin, OrgIds: orgIds}, nil
}

// CreatePlugin 创建插件，初始状态 draft，安装数归零
func (s *RegistryService) CreatePlugin(userId string, req *model.CreatePluginReq) (*model.Plugin, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}
	if viewer.UserId == "" {
		return nil, Forbiddenf("login required")
	}

	slug := strings.TrimSpace(req.Slug)
	if !slugRe.MatchString(slug) {
		return nil, Validationf("invalid slug: %q", slug)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, Validationf("name is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, Validationf("summary is required")
	}
	if !model.IsCategoryId(req.Category) {
		return nil, Validationf("unknown category: %q", req.Category)
	}
	if strings.TrimSpace(req.ReadmeMarkdown) == "" {
		return nil, Validationf("readme is required")
	}
	if req.Homepage != "" && !validHomepage(req.Homepage) {
		return nil, Validationf("homepage must be a valid http(s) URL")
	}

	status := model.StatusDraft
	if req.Status != "" {
		if !model.IsStatus(req.Status) {
			return nil, Validationf("unknown status: %q", req.Status)
		}
		if !viewer.IsAdmin {
			return nil, Forbiddenf("only admins can set the initial status")
		}
		status = req.Status
	}

	if !viewer.IsAdmin {
		count, err := s.store.CountPluginsByOwner(userId)
		if err != nil {
			return nil, Internal(err)
		}
		if count >= int64(s.limits.MaxPluginsPerUser) {
			return nil, QuotaExceededf("plugin quota reached (%d)", s.limits.MaxPluginsPerUser)
		}
	}

	if _, err := s.store.GetPluginBySlug(slug); err == nil {
		return nil, Conflictf("slug already taken: %q", slug)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, Internal(err)
	}

	// 归属组织取创建者的第一个组织成员关系，不信任请求侧
	ownerOrgId := ""
	if len(viewer.OrgIds) > 0 {
		ownerOrgId = viewer.OrgIds[0]
	}

	plugin := &model.Plugin{
		BaseModel:      model.BaseModel{Id: id.GetUUID()},
		Slug:           slug,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Category:       req.Category,
		Badges:         mustJSON(req.Badges),
		Homepage:       req.Homepage,
		Repository:     req.Repository,
		ReadmeMarkdown: req.ReadmeMarkdown,
		Status:         status,
		Installs:       0,
		OwnerUserId:    userId,
		OwnerOrgId:     ownerOrgId,
	}
	if req.Author != nil {
		plugin.Author = mustJSON(req.Author)
	}

	if err := s.store.CreatePlugin(plugin); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, Conflictf("slug already taken: %q", slug)
		}
		return nil, Internal(err)
	}

	log.Infow("plugin created", "pluginId", plugin.Id, "slug", plugin.Slug, "owner", userId)
	return plugin, nil
}

// GetPlugin 返回插件详情及访问者可见的版本
func (s *RegistryService) GetPlugin(userId, pluginId string, forMarket bool) (*model.PluginDetail, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}

	plugin, err := s.store.GetPluginById(pluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("plugin not found: %s", pluginId)
		}
		return nil, Internal(err)
	}
	if !pluginIsVisible(plugin, viewer, VisibilityOptions{ForMarket: forMarket}) {
		return nil, NotFoundf("plugin not found: %s", pluginId)
	}

	return s.buildDetail(plugin, viewer, forMarket)
}

func (s *RegistryService) buildDetail(plugin *model.Plugin, viewer Viewer, forMarket bool) (*model.PluginDetail, error) {
	versions, err := s.store.ListVersionsByPlugin(plugin.Id)
	if err != nil {
		return nil, Internal(err)
	}
	visible := filterVisibleVersions(versions, plugin, viewer, forMarket)
	return &model.PluginDetail{
		Plugin:        plugin,
		Versions:      visible,
		LatestVersion: selectLatestVisibleVersion(versions, plugin, viewer, forMarket),
	}, nil
}

// ListDashboardPlugins 控制台列表，管理员可带状态过滤看全量，普通用户只看自己的
func (s *RegistryService) ListDashboardPlugins(userId string, statuses []string) ([]model.PluginDetail, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}
	if viewer.UserId == "" {
		return nil, Forbiddenf("login required")
	}

	var plugins []model.Plugin
	if viewer.IsAdmin {
		plugins, err = s.store.ListPlugins()
	} else {
		plugins, err = s.store.ListPluginsByOwner(userId)
		statuses = nil
	}
	if err != nil {
		return nil, Internal(err)
	}

	details := make([]model.PluginDetail, 0, len(plugins))
	for i := range plugins {
		p := &plugins[i]
		if !pluginIsVisible(p, viewer, VisibilityOptions{Statuses: statuses}) {
			continue
		}
		detail, err := s.buildDetail(p, viewer, false)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// ListMarketPlugins 市场列表，只含存在已审核版本的插件
func (s *RegistryService) ListMarketPlugins() ([]model.PluginDetail, error) {
	plugins, err := s.store.ListPlugins()
	if err != nil {
		return nil, Internal(err)
	}

	details := make([]model.PluginDetail, 0, len(plugins))
	for i := range plugins {
		p := &plugins[i]
		if !pluginIsVisible(p, Viewer{}, VisibilityOptions{ForMarket: true}) {
			continue
		}
		detail, err := s.buildDetail(p, Viewer{}, true)
		if err != nil {
			return nil, err
		}
		// 没有任何过审版本的插件不进入市场
		if detail.LatestVersion == nil {
			continue
		}
		details = append(details, *detail)
	}
	return details, nil
}

// UpdatePlugin 部分更新插件，slug 创建后不可变
func (s *RegistryService) UpdatePlugin(userId, pluginId string, req *model.UpdatePluginReq, icon []byte, iconContentType string) (*model.Plugin, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}

	plugin, err := s.store.GetPluginById(pluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("plugin not found: %s", pluginId)
		}
		return nil, Internal(err)
	}
	if !viewer.IsAdmin && !viewer.isOwnerOf(plugin) {
		return nil, Forbiddenf("not the plugin owner")
	}

	if req.Slug != nil && strings.TrimSpace(*req.Slug) != plugin.Slug {
		return nil, Validationf("slug is immutable")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, Validationf("name is required")
		}
		plugin.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		plugin.Description = *req.Description
	}
	if req.Category != nil {
		if !model.IsCategoryId(*req.Category) {
			return nil, Validationf("unknown category: %q", *req.Category)
		}
		plugin.Category = *req.Category
	}
	if req.Badges != nil {
		plugin.Badges = mustJSON(*req.Badges)
	}
	if req.Author != nil {
		plugin.Author = mustJSON(req.Author)
	}
	if req.Homepage != nil {
		if *req.Homepage != "" && !validHomepage(*req.Homepage) {
			return nil, Validationf("homepage must be a valid http(s) URL")
		}
		plugin.Homepage = *req.Homepage
	}
	if req.Repository != nil {
		plugin.Repository = *req.Repository
	}
	if req.ReadmeMarkdown != nil {
		if strings.TrimSpace(*req.ReadmeMarkdown) == "" {
			return nil, Validationf("readme cannot be empty")
		}
		plugin.ReadmeMarkdown = strings.TrimSpace(*req.ReadmeMarkdown)
	}
	if req.IsOfficial != nil {
		if !viewer.IsAdmin {
			return nil, Forbiddenf("only admins can set the official flag")
		}
		plugin.IsOfficial = *req.IsOfficial
	}
	if req.Status != nil {
		if !viewer.IsAdmin {
			return nil, Forbiddenf("only admins can set the status here")
		}
		if !model.IsStatus(*req.Status) {
			return nil, Validationf("unknown status: %q", *req.Status)
		}
		plugin.Status = *req.Status
	}

	oldIconKey := plugin.IconKey
	if len(icon) > 0 {
		key := "icons/" + id.GetUUIDWithoutDashes()
		if _, err := s.blob.PutObject(s.ctx, key, icon, iconContentType); err != nil {
			return nil, StorageUnavailablef("icon upload failed: %v", err)
		}
		plugin.IconKey = key
		plugin.IconUrl = "/api/plugins/assets/" + key
	}

	if err := s.store.UpdatePlugin(plugin); err != nil {
		return nil, Internal(err)
	}

	// 写库成功后再清理旧图标
	if len(icon) > 0 && oldIconKey != "" && oldIconKey != plugin.IconKey {
		if err := s.blob.Delete(s.ctx, oldIconKey); err != nil {
			log.Warnw("failed to delete old plugin icon", "key", oldIconKey, "error", err)
		}
	}

	return plugin, nil
}

// SetPluginStatus 修改插件状态。所有者只能在 draft/pending 间流转，管理员不受限。
func (s *RegistryService) SetPluginStatus(userId, pluginId, status string) (*model.Plugin, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}
	if !model.IsStatus(status) {
		return nil, Validationf("unknown status: %q", status)
	}

	plugin, err := s.store.GetPluginById(pluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("plugin not found: %s", pluginId)
		}
		return nil, Internal(err)
	}

	if !viewer.IsAdmin {
		if !viewer.isOwnerOf(plugin) {
			return nil, Forbiddenf("not the plugin owner")
		}
		if status != model.StatusDraft && status != model.StatusPending {
			return nil, Forbiddenf("owners can only switch between draft and pending")
		}
	}

	if plugin.Status == status {
		return plugin, nil
	}
	plugin.Status = status
	if err := s.store.UpdatePlugin(plugin); err != nil {
		return nil, Internal(err)
	}
	log.Infow("plugin status changed", "pluginId", plugin.Id, "status", status, "by", userId)
	return plugin, nil
}

// DeletePlugin 删除插件及其所有版本和对象存储里的文件
func (s *RegistryService) DeletePlugin(userId, pluginId string) error {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return err
	}

	plugin, err := s.store.GetPluginById(pluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundf("plugin not found: %s", pluginId)
		}
		return Internal(err)
	}
	if !viewer.IsAdmin && !viewer.isOwnerOf(plugin) {
		return Forbiddenf("not the plugin owner")
	}

	versions, err := s.store.ListVersionsByPlugin(pluginId)
	if err != nil {
		return Internal(err)
	}
	for i := range versions {
		s.deleteVersionBlobs(&versions[i], plugin)
		if err := s.store.DeleteVersion(versions[i].Id); err != nil {
			return Internal(err)
		}
	}

	if plugin.IconKey != "" {
		if err := s.blob.Delete(s.ctx, plugin.IconKey); err != nil {
			log.Warnw("failed to delete plugin icon", "key", plugin.IconKey, "error", err)
		}
	}
	if err := s.store.DeletePlugin(pluginId); err != nil {
		return Internal(err)
	}
	log.Infow("plugin deleted", "pluginId", pluginId, "by", userId)
	return nil
}

// deleteVersionBlobs 清理版本关联的对象，插件级图标不动
func (s *RegistryService) deleteVersionBlobs(v *model.PluginVersion, plugin *model.Plugin) {
	if v.PackageKey != "" {
		if err := s.blob.Delete(s.ctx, v.PackageKey); err != nil {
			log.Warnw("failed to delete package", "key", v.PackageKey, "error", err)
		}
	}
	if v.IconKey != "" && v.IconKey != plugin.IconKey {
		if err := s.blob.Delete(s.ctx, v.IconKey); err != nil {
			log.Warnw("failed to delete version icon", "key", v.IconKey, "error", err)
		}
	}
}

// validHomepage 主页必须是 http/https 地址
func validHomepage(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// mustJSON 序列化为 JSON 列，入参来自已校验的请求结构
func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// sha256Hex 包内容的签名
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// extractPackageMetadata 解析 .tpex 包，非 tar 内容视为参数错误
func extractPackageMetadata(pkg []byte) (*tpex.Metadata, error) {
	meta, err := tpex.ExtractMetadata(pkg)
	if err != nil {
		if errors.Is(err, tpex.ErrNotTar) {
			return nil, Validationf("package is not a valid .tpex archive")
		}
		return nil, Internal(err)
	}
	return meta, nil
}
