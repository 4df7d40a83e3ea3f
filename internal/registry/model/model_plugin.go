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

package model

import (
	"time"

	"gorm.io/datatypes"
)

// 插件与版本的审核状态
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// 发布渠道
const (
	ChannelRelease  = "RELEASE"
	ChannelSnapshot = "SNAPSHOT"
	ChannelBeta     = "BETA"
)

// Plugin 插件表
type Plugin struct {
	BaseModel
	Slug            string         `gorm:"column:slug;uniqueIndex;size:64" json:"slug"`
	Name            string         `gorm:"column:name" json:"name"`
	Description     string         `gorm:"column:description;type:text" json:"description"`
	Category        string         `gorm:"column:category" json:"category"`
	Badges          datatypes.JSON `gorm:"column:badges;type:json" json:"badges"` // 展示标签数组
	Author          datatypes.JSON `gorm:"column:author;type:json" json:"author"` // {name, email, url}
	Homepage        string         `gorm:"column:homepage" json:"homepage"`
	Repository      string         `gorm:"column:repository" json:"repository"`
	ReadmeMarkdown  string         `gorm:"column:readme_markdown;type:text" json:"readmeMarkdown"`
	IconKey         string         `gorm:"column:icon_key" json:"iconKey"`
	IconUrl         string         `gorm:"column:icon_url" json:"iconUrl"`
	Status          string         `gorm:"column:status;index" json:"status"` // draft/pending/approved/rejected
	IsOfficial      bool           `gorm:"column:is_official" json:"isOfficial"`
	Installs        int64          `gorm:"column:installs" json:"installs"`
	OwnerUserId     string         `gorm:"column:owner_user_id;index" json:"ownerUserId"`
	OwnerOrgId      string         `gorm:"column:owner_org_id" json:"ownerOrgId"`
	LatestVersionId *string        `gorm:"column:latest_version_id" json:"latestVersionId"`
}

func (Plugin) TableName() string {
	return "t_plugin"
}

// PluginVersion 插件版本表，(plugin_id, version, channel) 唯一
type PluginVersion struct {
	BaseModel
	PluginId       string         `gorm:"column:plugin_id;index;uniqueIndex:uk_plugin_version,priority:1" json:"pluginId"`
	Version        string         `gorm:"column:version;uniqueIndex:uk_plugin_version,priority:2" json:"version"`
	Channel        string         `gorm:"column:channel;uniqueIndex:uk_plugin_version,priority:3" json:"channel"` // RELEASE/SNAPSHOT/BETA
	Changelog      string         `gorm:"column:changelog;type:text" json:"changelog"`
	Status         string         `gorm:"column:status;index" json:"status"`
	ReviewedAt     *time.Time     `gorm:"column:reviewed_at" json:"reviewedAt"`
	Signature      string         `gorm:"column:signature" json:"signature"` // 包内容的 SHA-256 十六进制摘要
	PackageKey     string         `gorm:"column:package_key;index" json:"packageKey"`
	PackageSize    int64          `gorm:"column:package_size" json:"packageSize"`
	IconKey        string         `gorm:"column:icon_key" json:"iconKey"`
	IconUrl        string         `gorm:"column:icon_url" json:"iconUrl"`
	Manifest       datatypes.JSON `gorm:"column:manifest;type:json" json:"manifest"`
	ReadmeMarkdown *string        `gorm:"column:readme_markdown;type:text" json:"readmeMarkdown"`
	CreatedBy      string         `gorm:"column:created_by;index" json:"createdBy"`
}

func (PluginVersion) TableName() string {
	return "t_plugin_version"
}

// PluginDetail 插件及其可见版本
type PluginDetail struct {
	*Plugin
	Versions      []PluginVersion `json:"versions"`
	LatestVersion *PluginVersion  `json:"latestVersion"`
}

// IsStatus 审核状态是否合法
func IsStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsVersionStatus 版本侧没有 draft，提交即待审
func IsVersionStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsChannel 发布渠道是否合法
func IsChannel(c string) bool {
	switch c {
	case ChannelRelease, ChannelSnapshot, ChannelBeta:
		return true
	}
	return false
}

// ChannelRank 渠道排序权重，正式渠道优先
func ChannelRank(c string) int {
	switch c {
	case ChannelRelease:
		return 3
	case ChannelSnapshot:
		return 2
	case ChannelBeta:
		return 1
	}
	return 0
}

// CreatePluginReq 创建插件请求，归属组织由服务端按创建者的成员关系推导
type CreatePluginReq struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Badges         []string `json:"badges"`
	Author         *Author  `json:"author"`
	Homepage       string   `json:"homepage"`
	Repository     string   `json:"repository"`
	ReadmeMarkdown string   `json:"readmeMarkdown"`
	Status         string   `json:"status"` // 仅管理员可指定初始状态
}

// UpdatePluginReq 更新插件请求，nil 字段不修改
type UpdatePluginReq struct {
	Slug           *string   `json:"slug"`
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Category       *string   `json:"category"`
	Badges         *[]string `json:"badges"`
	Author         *Author   `json:"author"`
	Homepage       *string   `json:"homepage"`
	Repository     *string   `json:"repository"`
	ReadmeMarkdown *string   `json:"readmeMarkdown"`
	IsOfficial     *bool     `json:"isOfficial"`
	Status         *string   `json:"status"`
}

// Author 插件作者信息
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Url   string `json:"url,omitempty"`
}

// PublishVersionReq 发布版本请求，包体在 multipart 的 package 字段
type PublishVersionReq struct {
	Version   string `json:"version" form:"version"`
	Channel   string `json:"channel" form:"channel"`
	Changelog string `json:"changelog" form:"changelog"`
	Homepage  string `json:"homepage" form:"homepage"`
}
