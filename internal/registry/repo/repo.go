package repo

import (
	"errors"
	"sync"

	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"gorm.io/gorm"
)

// Repo MySQL 实现
type Repo struct {
	Ctx *ctx.Context
}

func NewRepo(ctx *ctx.Context) *Repo {
	return &Repo{Ctx: ctx}
}

var migrateOnce sync.Once

// EnsureSchema 建表，幂等
func (r *Repo) EnsureSchema() error {
	var err error
	migrateOnce.Do(func() {
		err = r.Ctx.DBSession().AutoMigrate(
			&model.Plugin{},
			&model.PluginVersion{},
			&model.User{},
			&model.OrganizationMember{},
			&model.ReleaseUpdate{},
		)
	})
	return err
}

// wrapErr 统一映射 gorm 错误到仓储层哨兵错误
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
