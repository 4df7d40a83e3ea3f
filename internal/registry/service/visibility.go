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
	"slices"

	"github.com/tuff-sh/tuffhub/internal/registry/model"
)

// Viewer 当前访问者的身份快照，匿名访问时为零值
type Viewer struct {
	UserId  string
	IsAdmin bool
	OrgIds  []string
}

func (v Viewer) isOwnerOf(p *model.Plugin) bool {
	return v.UserId != "" && v.UserId == p.OwnerUserId
}

func (v Viewer) inOrg(orgId string) bool {
	return orgId != "" && slices.Contains(v.OrgIds, orgId)
}

// VisibilityOptions 列表查询的可见性参数
type VisibilityOptions struct {
	// ForMarket 市场视角，只暴露审核通过的内容
	ForMarket bool
	// Statuses 非空时作为状态白名单
	Statuses []string
}

// versionIsVisible 判定单个版本对访问者是否可见。
// 市场视角只看审核结果；BETA 渠道额外要求发布方组织的成员身份。
func versionIsVisible(version *model.PluginVersion, plugin *model.Plugin, viewer Viewer, forMarket bool) bool {
	if forMarket {
		return version.Status == model.StatusApproved
	}

	isOwner := viewer.isOwnerOf(plugin)
	if !viewer.IsAdmin && !isOwner && version.Status != model.StatusApproved {
		return false
	}

	if version.Channel == model.ChannelBeta {
		return viewer.IsAdmin || isOwner || viewer.inOrg(plugin.OwnerOrgId)
	}
	return true
}

// pluginIsVisible 判定插件本身对访问者是否可见
func pluginIsVisible(plugin *model.Plugin, viewer Viewer, opts VisibilityOptions) bool {
	if len(opts.Statuses) > 0 && !slices.Contains(opts.Statuses, plugin.Status) {
		return false
	}
	if opts.ForMarket {
		return plugin.Status == model.StatusApproved
	}
	if viewer.IsAdmin || viewer.isOwnerOf(plugin) {
		return true
	}
	if plugin.Status == model.StatusApproved {
		return true
	}
	if plugin.Status == model.StatusPending && viewer.inOrg(plugin.OwnerOrgId) {
		return true
	}
	return false
}

// selectLatestVisibleVersion 在可见版本中选出最新版本。
// 渠道优先级 RELEASE > SNAPSHOT > BETA，同渠道比 created_at。
func selectLatestVisibleVersion(versions []model.PluginVersion, plugin *model.Plugin, viewer Viewer, forMarket bool) *model.PluginVersion {
	var best *model.PluginVersion
	for i := range versions {
		v := &versions[i]
		if !versionIsVisible(v, plugin, viewer, forMarket) {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		br, vr := model.ChannelRank(best.Channel), model.ChannelRank(v.Channel)
		if vr > br || (vr == br && v.CreatedAt.After(best.CreatedAt)) {
			best = v
		}
	}
	return best
}

// filterVisibleVersions 过滤出访问者可见的版本，保持输入顺序
func filterVisibleVersions(versions []model.PluginVersion, plugin *model.Plugin, viewer Viewer, forMarket bool) []model.PluginVersion {
	visible := make([]model.PluginVersion, 0, len(versions))
	for i := range versions {
		if versionIsVisible(&versions[i], plugin, viewer, forMarket) {
			visible = append(visible, versions[i])
		}
	}
	return visible
}
