package storage

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tuff-sh/tuffhub/pkg/ctx"
)

// MemoryStorage 内存对象存储，用于开发模式和测试
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	s       *Storage
}

type memoryObject struct {
	data        []byte
	contentType string
	modTime     time.Time
}

func NewMemory(s *Storage) *MemoryStorage {
	if s == nil {
		s = &Storage{Provider: StorageMemory}
	}
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		s:       s,
	}
}

func (m *MemoryStorage) PutObject(_ *ctx.Context, objectName string, data []byte, contentType string) (string, error) {
	fullPath := getFullPath(m.s.BasePath, objectName)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[fullPath] = memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		modTime:     time.Now(),
	}
	return fullPath, nil
}

func (m *MemoryStorage) GetObject(_ *ctx.Context, objectName string) ([]byte, error) {
	fullPath := getFullPath(m.s.BasePath, objectName)

	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[fullPath]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", fullPath)
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *MemoryStorage) Upload(c *ctx.Context, objectName string, file *multipart.FileHeader, contentType string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(src); err != nil {
		return "", err
	}
	return m.PutObject(c, objectName, buf.Bytes(), contentType)
}

func (m *MemoryStorage) Download(c *ctx.Context, objectName string) ([]byte, error) {
	return m.GetObject(c, objectName)
}

func (m *MemoryStorage) Delete(_ *ctx.Context, objectName string) error {
	fullPath := getFullPath(m.s.BasePath, objectName)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, fullPath)
	return nil
}

func (m *MemoryStorage) List(_ *ctx.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := getFullPath(m.s.BasePath, prefix)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []ObjectInfo
	for key, obj := range m.objects {
		if fullPrefix != "" && !strings.HasPrefix(key, fullPrefix) {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.modTime,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Exists 仅内存实现提供，便于测试断言对象是否残留
func (m *MemoryStorage) Exists(objectName string) bool {
	fullPath := getFullPath(m.s.BasePath, objectName)

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[fullPath]
	return ok
}

// Len 当前对象数量
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
