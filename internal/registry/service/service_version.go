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
	"errors"
	"path"
	"strings"
	"time"

	"github.com/tuff-sh/tuffhub/internal/pkg/tpex"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/id"
	"github.com/tuff-sh/tuffhub/pkg/log"
)

// PackagePreview 上传前预览的包元数据
type PackagePreview struct {
	Manifest       map[string]any `json:"manifest"`
	ReadmeMarkdown *string        `json:"readmeMarkdown"`
	Signature      string         `json:"signature"`
	Size           int64          `json:"size"`
}

// PublishVersion 发布新版本。校验、冷却、上传、入库、重算 latest、状态提升，
// 顺序不可调整，校验失败时对象存储里不能留下任何内容。
func (s *RegistryService) PublishVersion(userId, pluginId string, req *model.PublishVersionReq, pkg []byte, icon []byte, iconContentType string) (*model.PluginVersion, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}
	if viewer.UserId == "" {
		return nil, Forbiddenf("login required")
	}

	if !model.IsChannel(req.Channel) {
		return nil, Validationf("unknown channel: %q", req.Channel)
	}
	if strings.TrimSpace(req.Changelog) == "" {
		return nil, Validationf("changelog is required")
	}
	if strings.TrimSpace(req.Version) == "" {
		return nil, Validationf("version is required")
	}
	if len(pkg) == 0 {
		return nil, Validationf("package is required")
	}
	if int64(len(pkg)) > s.limits.MaxPackageSize {
		return nil, Validationf("package exceeds %d bytes", s.limits.MaxPackageSize)
	}

	plugin, err := s.store.GetPluginById(pluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("plugin not found: %s", pluginId)
		}
		return nil, Internal(err)
	}

	canModerate := viewer.IsAdmin
	if !canModerate && !viewer.isOwnerOf(plugin) {
		return nil, Forbiddenf("not the plugin owner")
	}

	// 冷却对所有发布者生效，管理员也不例外
	last, err := s.store.LastPublishedAtByCreator(userId)
	if err != nil {
		return nil, Internal(err)
	}
	if last != nil {
		elapsed := time.Since(*last)
		if elapsed < s.limits.SubmissionCooldown {
			return nil, RateLimitedf("publish cooldown active, retry in %s", (s.limits.SubmissionCooldown - elapsed).Round(time.Second))
		}
	}

	signature := sha256Hex(pkg)

	meta, err := extractPackageMetadata(pkg)
	if err != nil {
		return nil, err
	}

	iconKey, iconUrl := plugin.IconKey, plugin.IconUrl
	if len(icon) > 0 {
		iconKey = "icons/" + id.GetUUIDWithoutDashes()
		if _, err := s.blob.PutObject(s.ctx, iconKey, icon, iconContentType); err != nil {
			return nil, StorageUnavailablef("icon upload failed: %v", err)
		}
		iconUrl = "/api/plugins/assets/" + iconKey
	}

	packageKey := "packages/" + id.GetUUIDWithoutDashes() + tpex.Extension
	if _, err := s.blob.PutObject(s.ctx, packageKey, pkg, "application/x-tar"); err != nil {
		return nil, StorageUnavailablef("package upload failed: %v", err)
	}

	if _, err := s.store.GetVersionByTriple(pluginId, req.Version, req.Channel); err == nil {
		return nil, Conflictf("version %s already published on %s", req.Version, req.Channel)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, Internal(err)
	}

	version := &model.PluginVersion{
		BaseModel:   model.BaseModel{Id: id.GetUUID()},
		PluginId:    pluginId,
		Version:     req.Version,
		Channel:     req.Channel,
		Changelog:   req.Changelog,
		Status:      model.StatusPending,
		Signature:   signature,
		PackageKey:  packageKey,
		PackageSize: int64(len(pkg)),
		IconKey:     iconKey,
		IconUrl:     iconUrl,
		CreatedBy:   userId,
	}
	if meta.Manifest != nil {
		version.Manifest = mustJSON(meta.Manifest)
	}
	version.ReadmeMarkdown = meta.Readme

	if err := s.store.CreateVersion(version); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, Conflictf("version %s already published on %s", req.Version, req.Channel)
		}
		return nil, Internal(err)
	}

	// latest 以发布方视角计算，管理员身份不影响结果
	publisher := Viewer{UserId: plugin.OwnerUserId, OrgIds: []string{plugin.OwnerOrgId}}
	if err := s.recomputeLatest(plugin, publisher); err != nil {
		return nil, err
	}

	if plugin.Homepage == "" && req.Homepage != "" {
		plugin.Homepage = req.Homepage
	}
	if !canModerate && plugin.Status == model.StatusDraft {
		plugin.Status = model.StatusPending
	}
	if canModerate && plugin.Status != model.StatusApproved {
		plugin.Status = model.StatusApproved
	}
	if err := s.store.UpdatePlugin(plugin); err != nil {
		return nil, Internal(err)
	}

	publishTotal.WithLabelValues(req.Channel).Inc()
	log.Infow("version published",
		"pluginId", pluginId,
		"version", req.Version,
		"channel", req.Channel,
		"signature", signature,
		"by", userId,
	)
	return version, nil
}

// recomputeLatest 以给定视角重新计算 latest_version_id 并写回插件
func (s *RegistryService) recomputeLatest(plugin *model.Plugin, viewer Viewer) error {
	versions, err := s.store.ListVersionsByPlugin(plugin.Id)
	if err != nil {
		return Internal(err)
	}
	latest := selectLatestVisibleVersion(versions, plugin, viewer, false)
	if latest != nil {
		plugin.LatestVersionId = &latest.Id
	} else {
		plugin.LatestVersionId = nil
	}
	return nil
}

// SetVersionStatus 审核版本，仅管理员。通过时盖 reviewed_at 章。
// 版本过审不会联动修改插件状态，两者独立审核。
func (s *RegistryService) SetVersionStatus(userId, versionId, status string) (*model.PluginVersion, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin {
		return nil, Forbiddenf("only admins can review versions")
	}
	if !model.IsVersionStatus(status) {
		return nil, Validationf("unknown version status: %q", status)
	}

	version, err := s.store.GetVersionById(versionId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("version not found: %s", versionId)
		}
		return nil, Internal(err)
	}
	if version.Status == status {
		return version, nil
	}

	version.Status = status
	if status == model.StatusApproved {
		now := time.Now()
		version.ReviewedAt = &now
	} else {
		version.ReviewedAt = nil
	}
	if err := s.store.UpdateVersion(version); err != nil {
		return nil, Internal(err)
	}

	plugin, err := s.store.GetPluginById(version.PluginId)
	if err == nil {
		if err := s.recomputeLatest(plugin, Viewer{UserId: plugin.OwnerUserId, IsAdmin: true}); err != nil {
			return nil, err
		}
		if err := s.store.UpdatePlugin(plugin); err != nil {
			return nil, Internal(err)
		}
	}

	log.Infow("version reviewed", "versionId", versionId, "status", status, "by", userId)
	return version, nil
}

// DeleteVersion 删除版本及其包文件，创建者或管理员可操作
func (s *RegistryService) DeleteVersion(userId, versionId string) error {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return err
	}

	version, err := s.store.GetVersionById(versionId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundf("version not found: %s", versionId)
		}
		return Internal(err)
	}
	if !viewer.IsAdmin && version.CreatedBy != viewer.UserId {
		return Forbiddenf("not the version creator")
	}

	plugin, err := s.store.GetPluginById(version.PluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundf("plugin not found: %s", version.PluginId)
		}
		return Internal(err)
	}

	s.deleteVersionBlobs(version, plugin)
	if err := s.store.DeleteVersion(versionId); err != nil {
		return Internal(err)
	}

	publisher := Viewer{UserId: plugin.OwnerUserId, OrgIds: []string{plugin.OwnerOrgId}}
	if err := s.recomputeLatest(plugin, publisher); err != nil {
		return err
	}
	if err := s.store.UpdatePlugin(plugin); err != nil {
		return Internal(err)
	}

	log.Infow("version deleted", "versionId", versionId, "pluginId", plugin.Id, "by", userId)
	return nil
}

// AssetDownload 资产下载结果
type AssetDownload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// DownloadAsset 按对象 key 下载包。BETA 渠道的包仅限管理员、
// 所有者和发布方组织的成员。图标公开可读。
func (s *RegistryService) DownloadAsset(userId, packageKey string) (*AssetDownload, error) {
	viewer, err := s.loadViewer(userId)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(packageKey, "icons/") {
		data, err := s.blob.GetObject(s.ctx, packageKey)
		if err != nil {
			return nil, NotFoundf("asset not found")
		}
		return &AssetDownload{Data: data, Filename: path.Base(packageKey), ContentType: "application/octet-stream"}, nil
	}

	version, err := s.store.GetVersionByPackageKey(packageKey)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("asset not found")
		}
		return nil, Internal(err)
	}
	plugin, err := s.store.GetPluginById(version.PluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("asset not found")
		}
		return nil, Internal(err)
	}

	if version.Channel == model.ChannelBeta {
		if !viewer.IsAdmin && !viewer.isOwnerOf(plugin) && !viewer.inOrg(plugin.OwnerOrgId) {
			return nil, Forbiddenf("beta builds are limited to the publisher's organization")
		}
	}

	data, err := s.blob.GetObject(s.ctx, packageKey)
	if err != nil {
		return nil, StorageUnavailablef("asset fetch failed: %v", err)
	}

	downloadTotal.WithLabelValues(version.Channel).Inc()
	return &AssetDownload{
		Data:        data,
		Filename:    version.Version + tpex.Extension,
		ContentType: "application/x-tar",
	}, nil
}

// RecordInstall 安装计数
func (s *RegistryService) RecordInstall(pluginId string) (*model.Plugin, error) {
	plugin, err := s.store.GetPluginById(pluginId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("plugin not found: %s", pluginId)
		}
		return nil, Internal(err)
	}
	plugin.Installs++
	if err := s.store.UpdatePlugin(plugin); err != nil {
		return nil, Internal(err)
	}
	installTotal.Inc()
	return plugin, nil
}

// PreviewPackage 解析包元数据但不落库，供前端发布前预览
func (s *RegistryService) PreviewPackage(pkg []byte) (*PackagePreview, error) {
	if len(pkg) == 0 {
		return nil, Validationf("package is required")
	}
	if int64(len(pkg)) > s.limits.MaxPackageSize {
		return nil, Validationf("package exceeds %d bytes", s.limits.MaxPackageSize)
	}
	meta, err := extractPackageMetadata(pkg)
	if err != nil {
		return nil, err
	}
	return &PackagePreview{
		Manifest:       meta.Manifest,
		ReadmeMarkdown: meta.Readme,
		Signature:      sha256Hex(pkg),
		Size:           int64(len(pkg)),
	}, nil
}
