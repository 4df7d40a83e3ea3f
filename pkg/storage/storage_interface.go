package storage

import (
	"mime/multipart"
	"time"

	"github.com/tuff-sh/tuffhub/pkg/ctx"
)

// ObjectInfo 对象元信息
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

type StorageProvider interface {
	PutObject(ctx *ctx.Context, objectName string, data []byte, contentType string) (string, error)
	GetObject(ctx *ctx.Context, objectName string) ([]byte, error)
	Upload(ctx *ctx.Context, objectName string, file *multipart.FileHeader, contentType string) (string, error)
	Download(ctx *ctx.Context, objectName string) ([]byte, error)
	Delete(ctx *ctx.Context, objectName string) error
	List(ctx *ctx.Context, prefix string) ([]ObjectInfo, error)
}
