// Package repositories provides PostgreSQL-backed persistence for the
// engine's own entities (datasources and saved queries), plus in-memory
// implementations for embedding without a database.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminabi/lumina-engine/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SavedQueryRepository persists successful query executions.
type SavedQueryRepository interface {
	Create(ctx context.Context, query *models.SavedQuery) error
	ListByDataSource(ctx context.Context, dataSourceID uuid.UUID) ([]*models.SavedQuery, error)
	DeleteByDataSource(ctx context.Context, dataSourceID uuid.UUID) error
}

type savedQueryRepository struct {
	pool *pgxpool.Pool
}

// NewSavedQueryRepository creates the PostgreSQL saved-query repository.
func NewSavedQueryRepository(pool *pgxpool.Pool) SavedQueryRepository {
	return &savedQueryRepository{pool: pool}
}

var _ SavedQueryRepository = (*savedQueryRepository)(nil)

func (r *savedQueryRepository) Create(ctx context.Context, query *models.SavedQuery) error {
	if query.ID == uuid.Nil {
		query.ID = uuid.New()
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO saved_queries (id, user_id, data_source_id, name, sql_text, result_metadata, execution_time_ms, row_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		query.ID, query.UserID, query.DataSourceID, query.Name, query.SQL,
		query.ResultMetadata, query.ExecutionTimeMs, query.RowCount, query.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert saved query: %w", err)
	}
	return nil
}

func (r *savedQueryRepository) ListByDataSource(ctx context.Context, dataSourceID uuid.UUID) ([]*models.SavedQuery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, data_source_id, name, sql_text, result_metadata, execution_time_ms, row_count, created_at
		FROM saved_queries
		WHERE data_source_id = $1
		ORDER BY created_at DESC`, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	defer rows.Close()

	var queries []*models.SavedQuery
	for rows.Next() {
		var q models.SavedQuery
		if err := rows.Scan(&q.ID, &q.UserID, &q.DataSourceID, &q.Name, &q.SQL,
			&q.ResultMetadata, &q.ExecutionTimeMs, &q.RowCount, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved query: %w", err)
		}
		queries = append(queries, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved queries: %w", err)
	}
	return queries, nil
}

func (r *savedQueryRepository) DeleteByDataSource(ctx context.Context, dataSourceID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM saved_queries WHERE data_source_id = $1`, dataSourceID)
	if err != nil {
		return fmt.Errorf("failed to delete saved queries: %w", err)
	}
	return nil
}

// DataSourceRepository persists datasource records. It also serves as
// the status recorder used after connection tests.
type DataSourceRepository interface {
	Create(ctx context.Context, ds *models.DataSource) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DataSource, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DataSource, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordStatus(ctx context.Context, id string, status models.DataSourceStatus, testedAt time.Time) error
}

type dataSourceRepository struct {
	pool *pgxpool.Pool
}

// NewDataSourceRepository creates the PostgreSQL datasource repository.
func NewDataSourceRepository(pool *pgxpool.Pool) DataSourceRepository {
	return &dataSourceRepository{pool: pool}
}

var _ DataSourceRepository = (*dataSourceRepository)(nil)

func (r *dataSourceRepository) Create(ctx context.Context, ds *models.DataSource) error {
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

	encrypted, ok := ds.ConnectionConfig.(string)
	if !ok {
		return fmt.Errorf("connection config must be encrypted before persisting")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO data_sources (id, user_id, name, engine, connection_config, status, last_tested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ds.ID, ds.UserID, ds.Name, ds.Engine, encrypted, ds.Status, ds.LastTestedAt, ds.CreatedAt, ds.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert data source: %w", err)
	}
	return nil
}

func (r *dataSourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DataSource, error) {
	var ds models.DataSource
	var encrypted string
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, engine, connection_config, status, last_tested_at, created_at, updated_at
		FROM data_sources WHERE id = $1`, id).
		Scan(&ds.ID, &ds.UserID, &ds.Name, &ds.Engine, &encrypted, &ds.Status, &ds.LastTestedAt, &ds.CreatedAt, &ds.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("data source %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data source: %w", err)
	}
	ds.ConnectionConfig = encrypted
	return &ds, nil
}

func (r *dataSourceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.DataSource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, engine, connection_config, status, last_tested_at, created_at, updated_at
		FROM data_sources WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.DataSource
	for rows.Next() {
		var ds models.DataSource
		var encrypted string
		if err := rows.Scan(&ds.ID, &ds.UserID, &ds.Name, &ds.Engine, &encrypted,
			&ds.Status, &ds.LastTestedAt, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan data source: %w", err)
		}
		ds.ConnectionConfig = encrypted
		sources = append(sources, &ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate data sources: %w", err)
	}
	return sources, nil
}

func (r *dataSourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM data_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete data source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("data source %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *dataSourceRepository) RecordStatus(ctx context.Context, id string, status models.DataSourceStatus, testedAt time.Time) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid data source id %q: %w", id, err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE data_sources
		SET status = $2, last_tested_at = $3, updated_at = $4
		WHERE id = $1`,
		parsed, status, testedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record data source status: %w", err)
	}
	return nil
}
