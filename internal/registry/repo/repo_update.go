package repo

import (
	"github.com/tuff-sh/tuffhub/internal/registry/model"
)

func (r *Repo) CreateUpdate(u *model.ReleaseUpdate) error {
	return wrapErr(r.Ctx.DBSession().Table(model.ReleaseUpdate{}.TableName()).Create(u).Error)
}

func (r *Repo) GetUpdateById(id string) (*model.ReleaseUpdate, error) {
	var update model.ReleaseUpdate
	err := r.Ctx.DBSession().Table(model.ReleaseUpdate{}.TableName()).
		Where("id = ?", id).
		First(&update).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &update, nil
}

func (r *Repo) ListUpdates() ([]model.ReleaseUpdate, error) {
	var updates []model.ReleaseUpdate
	err := r.Ctx.DBSession().Table(model.ReleaseUpdate{}.TableName()).
		Order("created_at DESC, id DESC").
		Find(&updates).Error
	return updates, wrapErr(err)
}

func (r *Repo) UpdateUpdate(u *model.ReleaseUpdate) error {
	return wrapErr(r.Ctx.DBSession().Table(model.ReleaseUpdate{}.TableName()).
		Where("id = ?", u.Id).
		Save(u).Error)
}

func (r *Repo) DeleteUpdate(id string) error {
	return wrapErr(r.Ctx.DBSession().Table(model.ReleaseUpdate{}.TableName()).
		Where("id = ?", id).
		Delete(&model.ReleaseUpdate{}).Error)
}
