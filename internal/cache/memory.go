package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"crowdcache/internal/models"
)

// MemoryStore is a Store kept entirely in memory. Used in tests and for
// disposable dev runs; it enforces the same id-uniqueness contract as the
// durable stores.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[uint64]models.Project
}

// NewMemoryStore creates an empty in-memory cache store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[uint64]models.Project)}
}

// Newest returns the highest-id cached project, or nil when empty
func (s *MemoryStore) Newest(ctx context.Context) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *models.Project
	for id := range s.projects {
		if newest == nil || id > newest.ID {
			p := s.projects[id]
			newest = &p
		}
	}
	return newest, nil
}

// BulkInsert writes all projects atomically; any duplicate id fails the
// whole batch before anything is written
func (s *MemoryStore) BulkInsert(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uint64]bool, len(projects))
	for _, p := range projects {
		if _, exists := s.projects[p.ID]; exists || seen[p.ID] {
			return fmt.Errorf("duplicate project id %d", p.ID)
		}
		seen[p.ID] = true
	}

	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return nil
}

// Get retrieves a project by id
func (s *MemoryStore) Get(ctx context.Context, id uint64) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// List returns projects in ascending id order
func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.sortedLocked(), limit, offset), nil
}

// Search returns projects whose title contains the query substring
func (s *MemoryStore) Search(ctx context.Context, query string, limit, offset int) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var matched []models.Project
	for _, p := range s.sortedLocked() {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			matched = append(matched, p)
		}
	}
	return paginate(matched, limit, offset), nil
}

// Count returns the number of cached projects
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), nil
}

// Clear removes all cached projects
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[uint64]models.Project)
	return nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) sortedLocked() []models.Project {
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paginate(projects []models.Project, limit, offset int) []models.Project {
	if offset >= len(projects) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(projects) {
		end = len(projects)
	}
	return projects[offset:end]
}
