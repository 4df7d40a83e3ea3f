package repo

import (
	"sort"
	"sync"
	"time"

	"github.com/tuff-sh/tuffhub/internal/registry/model"
)

// MemoryStore 内存实现，用于开发模式和测试
type MemoryStore struct {
	mu       sync.RWMutex
	plugins  map[string]model.Plugin
	versions map[string]model.PluginVersion
	users    map[string]model.User
	orgs     map[string][]string // userId -> orgIds
	updates  map[string]model.ReleaseUpdate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plugins:  make(map[string]model.Plugin),
		versions: make(map[string]model.PluginVersion),
		users:    make(map[string]model.User),
		orgs:     make(map[string][]string),
		updates:  make(map[string]model.ReleaseUpdate),
	}
}

func stampCreate(b *model.BaseModel) {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
}

func (s *MemoryStore) CreatePlugin(p *model.Plugin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plugins[p.Id]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.plugins {
		if existing.Slug == p.Slug {
			return ErrDuplicate
		}
	}
	stampCreate(&p.BaseModel)
	s.plugins[p.Id] = *p
	return nil
}

func (s *MemoryStore) GetPluginById(id string) (*model.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plugins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetPluginBySlug(slug string) (*model.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plugins {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListPlugins() ([]model.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plugins := make([]model.Plugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		plugins = append(plugins, p)
	}
	sortPluginsNewestFirst(plugins)
	return plugins, nil
}

func (s *MemoryStore) ListPluginsByOwner(userId string) ([]model.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plugins []model.Plugin
	for _, p := range s.plugins {
		if p.OwnerUserId == userId {
			plugins = append(plugins, p)
		}
	}
	sortPluginsNewestFirst(plugins)
	return plugins, nil
}

func (s *MemoryStore) CountPluginsByOwner(userId string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, p := range s.plugins {
		if p.OwnerUserId == userId {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) UpdatePlugin(p *model.Plugin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plugins[p.Id]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	s.plugins[p.Id] = *p
	return nil
}

func (s *MemoryStore) DeletePlugin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plugins, id)
	return nil
}

func (s *MemoryStore) CreateVersion(v *model.PluginVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[v.Id]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.versions {
		if existing.PluginId == v.PluginId && existing.Version == v.Version && existing.Channel == v.Channel {
			return ErrDuplicate
		}
	}
	stampCreate(&v.BaseModel)
	s.versions[v.Id] = *v
	return nil
}

func (s *MemoryStore) GetVersionById(id string) (*model.PluginVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *MemoryStore) GetVersionByPackageKey(key string) (*model.PluginVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions {
		if v.PackageKey == key {
			cp := v
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetVersionByTriple(pluginId, version, channel string) (*model.PluginVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions {
		if v.PluginId == pluginId && v.Version == version && v.Channel == channel {
			cp := v
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListVersionsByPlugin(pluginId string) ([]model.PluginVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var versions []model.PluginVersion
	for _, v := range s.versions {
		if v.PluginId == pluginId {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		if !versions[i].CreatedAt.Equal(versions[j].CreatedAt) {
			return versions[i].CreatedAt.After(versions[j].CreatedAt)
		}
		return versions[i].Id > versions[j].Id
	})
	return versions, nil
}

func (s *MemoryStore) UpdateVersion(v *model.PluginVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[v.Id]; !ok {
		return ErrNotFound
	}
	v.UpdatedAt = time.Now()
	s.versions[v.Id] = *v
	return nil
}

func (s *MemoryStore) DeleteVersion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, id)
	return nil
}

func (s *MemoryStore) LastPublishedAtByCreator(userId string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *time.Time
	for _, v := range s.versions {
		if v.CreatedBy != userId {
			continue
		}
		createdAt := v.CreatedAt
		if latest == nil || createdAt.After(*latest) {
			latest = &createdAt
		}
	}
	return latest, nil
}

func (s *MemoryStore) GetUserById(id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Id]; ok {
		return ErrDuplicate
	}
	stampCreate(&u.BaseModel)
	s.users[u.Id] = *u
	return nil
}

func (s *MemoryStore) ListOrgIdsByUser(userId string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.orgs[userId]...), nil
}

func (s *MemoryStore) AddOrgMember(m *model.OrganizationMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stampCreate(&m.BaseModel)
	s.orgs[m.UserId] = append(s.orgs[m.UserId], m.OrgId)
	return nil
}

func (s *MemoryStore) CreateUpdate(u *model.ReleaseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.updates[u.Id]; ok {
		return ErrDuplicate
	}
	stampCreate(&u.BaseModel)
	s.updates[u.Id] = *u
	return nil
}

func (s *MemoryStore) GetUpdateById(id string) (*model.ReleaseUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.updates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ListUpdates() ([]model.ReleaseUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	updates := make([]model.ReleaseUpdate, 0, len(s.updates))
	for _, u := range s.updates {
		updates = append(updates, u)
	}
	sort.Slice(updates, func(i, j int) bool {
		if !updates[i].CreatedAt.Equal(updates[j].CreatedAt) {
			return updates[i].CreatedAt.After(updates[j].CreatedAt)
		}
		return updates[i].Id > updates[j].Id
	})
	return updates, nil
}

func (s *MemoryStore) UpdateUpdate(u *model.ReleaseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.updates[u.Id]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.updates[u.Id] = *u
	return nil
}

func (s *MemoryStore) DeleteUpdate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.updates, id)
	return nil
}

func sortPluginsNewestFirst(plugins []model.Plugin) {
	sort.Slice(plugins, func(i, j int) bool {
		if !plugins[i].CreatedAt.Equal(plugins[j].CreatedAt) {
			return plugins[i].CreatedAt.After(plugins[j].CreatedAt)
		}
		return plugins[i].Id > plugins[j].Id
	})
}
