package repo

import (
	"github.com/tuff-sh/tuffhub/internal/registry/model"
)

func (r *Repo) GetUserById(id string) (*model.User, error) {
	var user model.User
	err := r.Ctx.DBSession().Table(model.User{}.TableName()).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (r *Repo) GetUserByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.Ctx.DBSession().Table(model.User{}.TableName()).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (r *Repo) CreateUser(u *model.User) error {
	return wrapErr(r.Ctx.DBSession().Table(model.User{}.TableName()).Create(u).Error)
}

func (r *Repo) ListOrgIdsByUser(userId string) ([]string, error) {
	var orgIds []string
	err := r.Ctx.DBSession().Table(model.OrganizationMember{}.TableName()).
		Where("user_id = ?", userId).
		Pluck("org_id", &orgIds).Error
	return orgIds, wrapErr(err)
}

func (r *Repo) AddOrgMember(m *model.OrganizationMember) error {
	return wrapErr(r.Ctx.DBSession().Table(model.OrganizationMember{}.TableName()).Create(m).Error)
}
