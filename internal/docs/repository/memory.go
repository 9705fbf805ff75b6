package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docufold/docufold/internal/docs"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository used by the standalone docs binary and
// unit tests. It enforces the same slug-uniqueness rule as the Mongo repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*docs.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*docs.Document)}
}

func (m *MemoryRepo) Insert(ctx context.Context, d *docs.Document) (*docs.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.Slug == d.Slug {
			return nil, ErrDuplicateSlug
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	m.store[d.ID] = &cp
	return d, nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (*docs.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) GetBySlug(ctx context.Context, slug string) (*docs.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.Slug == slug {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(ctx context.Context) ([]*docs.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*docs.Document, 0, len(m.store))
	for _, d := range m.store {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, u Update) (*docs.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Slug != nil {
		for otherID, other := range m.store {
			if otherID != id && other.Slug == *u.Slug {
				return nil, ErrDuplicateSlug
			}
		}
		d.Slug = *u.Slug
	}
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.FilePath != nil {
		d.FilePath = *u.FilePath
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	return &cp, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
