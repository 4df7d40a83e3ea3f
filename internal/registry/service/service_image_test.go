package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/storage"
)

func newImageService(t *testing.T) (*ImageService, *storage.MemoryStorage) {
	t.Helper()
	store := repo.NewMemoryStore()
	require.NoError(t, store.CreateUser(&model.User{BaseModel: model.BaseModel{Id: adminId}, Username: "admin", IsAdmin: true}))
	require.NoError(t, store.CreateUser(&model.User{BaseModel: model.BaseModel{Id: ownerId}, Username: "owner"}))
	blob := storage.NewMemory(nil)
	appCtx := ctx.NewContext(context.Background(), nil, nil, log.GetLogger())
	return NewImageService(appCtx, store, blob), blob
}

func TestImageUploadAllowList(t *testing.T) {
	svc, _ := newImageService(t)

	_, err := svc.Upload(adminId, "banner.exe", []byte{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Upload(ownerId, "banner.png", []byte{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	info, err := svc.Upload(adminId, "banner.png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)

	data, contentType, err := svc.Get(info.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "image/png", contentType)
}

func TestImageUploadSizeLimit(t *testing.T) {
	svc, _ := newImageService(t)

	oversized := make([]byte, maxImageSize+1)
	_, err := svc.Upload(adminId, "big.png", oversized)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestImageListAndDelete(t *testing.T) {
	svc, blob := newImageService(t)

	info, err := svc.Upload(adminId, "a.png", []byte{1})
	require.NoError(t, err)

	objects, err := svc.List(adminId)
	require.NoError(t, err)
	assert.Len(t, objects, 1)

	require.NoError(t, svc.Delete(adminId, info.Key))
	assert.Equal(t, 0, blob.Len())
}
