package service

import (
	"errors"
	"strings"

	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/id"
)

// UpdateService 发布动态，读公开、写仅管理员
type UpdateService struct {
	ctx   *ctx.Context
	store repo.Store
}

func NewUpdateService(ctx *ctx.Context, store repo.Store) *UpdateService {
	return &UpdateService{ctx: ctx, store: store}
}

func (s *UpdateService) requireAdmin(userId string) error {
	user, err := s.store.GetUserById(userId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Forbiddenf("unknown user")
		}
		return Internal(err)
	}
	if !user.IsAdmin {
		return Forbiddenf("admin only")
	}
	return nil
}

func validateUpdateReq(req *model.ReleaseUpdateReq) error {
	if strings.TrimSpace(req.Title) == "" {
		return Validationf("title is required")
	}
	if strings.TrimSpace(req.Timestamp) == "" {
		return Validationf("timestamp is required")
	}
	return nil
}

func (s *UpdateService) Create(userId string, req *model.ReleaseUpdateReq) (*model.ReleaseUpdate, error) {
	if err := s.requireAdmin(userId); err != nil {
		return nil, err
	}
	if err := validateUpdateReq(req); err != nil {
		return nil, err
	}

	update := &model.ReleaseUpdate{
		BaseModel: model.BaseModel{Id: id.GetUUID()},
		Title:     req.Title,
		Timestamp: req.Timestamp,
		Summary:   req.Summary,
		Tags:      mustJSON(req.Tags),
		Link:      req.Link,
	}
	if err := s.store.CreateUpdate(update); err != nil {
		return nil, Internal(err)
	}
	return update, nil
}

func (s *UpdateService) List() ([]model.ReleaseUpdate, error) {
	updates, err := s.store.ListUpdates()
	if err != nil {
		return nil, Internal(err)
	}
	return updates, nil
}

func (s *UpdateService) Get(updateId string) (*model.ReleaseUpdate, error) {
	update, err := s.store.GetUpdateById(updateId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("update not found: %s", updateId)
		}
		return nil, Internal(err)
	}
	return update, nil
}

func (s *UpdateService) Update(userId, updateId string, req *model.ReleaseUpdateReq) (*model.ReleaseUpdate, error) {
	if err := s.requireAdmin(userId); err != nil {
		return nil, err
	}
	if err := validateUpdateReq(req); err != nil {
		return nil, err
	}

	update, err := s.Get(updateId)
	if err != nil {
		return nil, err
	}
	update.Title = req.Title
	update.Timestamp = req.Timestamp
	update.Summary = req.Summary
	update.Tags = mustJSON(req.Tags)
	update.Link = req.Link
	if err := s.store.UpdateUpdate(update); err != nil {
		return nil, Internal(err)
	}
	return update, nil
}

func (s *UpdateService) Delete(userId, updateId string) error {
	if err := s.requireAdmin(userId); err != nil {
		return err
	}
	if _, err := s.Get(updateId); err != nil {
		return err
	}
	return s.store.DeleteUpdate(updateId)
}
