package service

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/id"
	"github.com/tuff-sh/tuffhub/pkg/storage"
)

const (
	imagePrefix  = "images/"
	maxImageSize = 5 * 1024 * 1024
)

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ImageService 管理端图片库，存储在对象存储的 images/ 前缀下
type ImageService struct {
	ctx   *ctx.Context
	store repo.Store
	blob  storage.StorageProvider
}

func NewImageService(ctx *ctx.Context, store repo.Store, blob storage.StorageProvider) *ImageService {
	return &ImageService{ctx: ctx, store: store, blob: blob}
}

func (s *ImageService) requireAdmin(userId string) error {
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

// Upload 上传图片，按扩展名和大小做白名单校验
func (s *ImageService) Upload(userId, filename string, data []byte) (*storage.ObjectInfo, error) {
	if err := s.requireAdmin(userId); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, Validationf("image is required")
	}
	if len(data) > maxImageSize {
		return nil, Validationf("image exceeds %d bytes", maxImageSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return nil, Validationf("unsupported image type: %q", ext)
	}

	key := imagePrefix + id.GetUUIDWithoutDashes() + ext
	if _, err := s.blob.PutObject(s.ctx, key, data, contentType); err != nil {
		return nil, StorageUnavailablef("image upload failed: %v", err)
	}
	return &storage.ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func (s *ImageService) List(userId string) ([]storage.ObjectInfo, error) {
	if err := s.requireAdmin(userId); err != nil {
		return nil, err
	}
	objects, err := s.blob.List(s.ctx, imagePrefix)
	if err != nil {
		return nil, StorageUnavailablef("image list failed: %v", err)
	}
	return objects, nil
}

// Get 公开读取，返回内容和推断出的 MIME 类型
func (s *ImageService) Get(key string) ([]byte, string, error) {
	if !strings.HasPrefix(key, imagePrefix) {
		key = imagePrefix + key
	}
	contentType, ok := imageContentTypes[strings.ToLower(filepath.Ext(key))]
	if !ok {
		return nil, "", NotFoundf("image not found")
	}
	data, err := s.blob.GetObject(s.ctx, key)
	if err != nil {
		return nil, "", NotFoundf("image not found")
	}
	return data, contentType, nil
}

func (s *ImageService) Delete(userId, key string) error {
	if err := s.requireAdmin(userId); err != nil {
		return err
	}
	if !strings.HasPrefix(key, imagePrefix) {
		key = imagePrefix + key
	}
	if err := s.blob.Delete(s.ctx, key); err != nil {
		return StorageUnavailablef("image delete failed: %v", err)
	}
	return nil
}
