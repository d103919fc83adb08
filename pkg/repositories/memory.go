package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luminabi/lumina-engine/pkg/models"
)

// MemorySavedQueryRepository is an in-memory SavedQueryRepository for
// tests and embedded use without PostgreSQL.
type MemorySavedQueryRepository struct {
	mu      sync.RWMutex
	queries map[uuid.UUID]*models.SavedQuery
}

// NewMemorySavedQueryRepository creates an empty in-memory repository.
func NewMemorySavedQueryRepository() *MemorySavedQueryRepository {
	return &MemorySavedQueryRepository{queries: make(map[uuid.UUID]*models.SavedQuery)}
}

var _ SavedQueryRepository = (*MemorySavedQueryRepository)(nil)

func (r *MemorySavedQueryRepository) Create(_ context.Context, query *models.SavedQuery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if query.ID == uuid.Nil {
		query.ID = uuid.New()
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now().UTC()
	}
	stored := *query
	r.queries[query.ID] = &stored
	return nil
}

func (r *MemorySavedQueryRepository) ListByDataSource(_ context.Context, dataSourceID uuid.UUID) ([]*models.SavedQuery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.SavedQuery
	for _, q := range r.queries {
		if q.DataSourceID == dataSourceID {
			copied := *q
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemorySavedQueryRepository) DeleteByDataSource(_ context.Context, dataSourceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, q := range r.queries {
		if q.DataSourceID == dataSourceID {
			delete(r.queries, id)
		}
	}
	return nil
}

// MemoryDataSourceRepository is an in-memory DataSourceRepository.
type MemoryDataSourceRepository struct {
	mu      sync.RWMutex
	sources map[uuid.UUID]*models.DataSource
}

// NewMemoryDataSourceRepository creates an empty in-memory repository.
func NewMemoryDataSourceRepository() *MemoryDataSourceRepository {
	return &MemoryDataSourceRepository{sources: make(map[uuid.UUID]*models.DataSource)}
}

var _ DataSourceRepository = (*MemoryDataSourceRepository)(nil)

func (r *MemoryDataSourceRepository) Create(_ context.Context, ds *models.DataSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ds.ID == uuid.Nil {
		ds.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now
	if ds.Status == "" {
		ds.Status = models.StatusInactive
	}
	stored := *ds
	r.sources[ds.ID] = &stored
	return nil
}

func (r *MemoryDataSourceRepository) GetByID(_ context.Context, id uuid.UUID) (*models.DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("data source %s: %w", id, ErrNotFound)
	}
	copied := *ds
	return &copied, nil
}

func (r *MemoryDataSourceRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.DataSource
	for _, ds := range r.sources {
		if ds.UserID == userID {
			copied := *ds
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryDataSourceRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("data source %s: %w", id, ErrNotFound)
	}
	delete(r.sources, id)
	return nil
}

func (r *MemoryDataSourceRepository) RecordStatus(_ context.Context, id string, status models.DataSourceStatus, testedAt time.Time) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid data source id %q: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ds, ok := r.sources[parsed]
	if !ok {
		return fmt.Errorf("data source %s: %w", id, ErrNotFound)
	}
	ds.Status = status
	tested := testedAt
	ds.LastTestedAt = &tested
	ds.UpdatedAt = time.Now().UTC()
	return nil
}
