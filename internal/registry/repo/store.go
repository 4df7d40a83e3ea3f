package repo

import (
	"errors"
	"time"

	"github.com/google/wire"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ProviderSet 提供仓储相关的依赖
var ProviderSet = wire.NewSet(NewRepo, wire.Bind(new(Store), new(*Repo)))

// Store 注册中心的持久化接口，由 MySQL 与内存两种实现
type Store interface {
	// plugin
	CreatePlugin(p *model.Plugin) error
	GetPluginById(id string) (*model.Plugin, error)
	GetPluginBySlug(slug string) (*model.Plugin, error)
	ListPlugins() ([]model.Plugin, error)
	ListPluginsByOwner(userId string) ([]model.Plugin, error)
	CountPluginsByOwner(userId string) (int64, error)
	UpdatePlugin(p *model.Plugin) error
	DeletePlugin(id string) error

	// version
	CreateVersion(v *model.PluginVersion) error
	GetVersionById(id string) (*model.PluginVersion, error)
	GetVersionByPackageKey(key string) (*model.PluginVersion, error)
	GetVersionByTriple(pluginId, version, channel string) (*model.PluginVersion, error)
	ListVersionsByPlugin(pluginId string) ([]model.PluginVersion, error)
	UpdateVersion(v *model.PluginVersion) error
	DeleteVersion(id string) error
	LastPublishedAtByCreator(userId string) (*time.Time, error)

	// user
	GetUserById(id string) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	CreateUser(u *model.User) error
	ListOrgIdsByUser(userId string) ([]string, error)
	AddOrgMember(m *model.OrganizationMember) error

	// release update
	CreateUpdate(u *model.ReleaseUpdate) error
	GetUpdateById(id string) (*model.ReleaseUpdate, error)
	ListUpdates() ([]model.ReleaseUpdate, error)
	UpdateUpdate(u *model.ReleaseUpdate) error
	DeleteUpdate(id string) error
}
