package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"crowdcache/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

const projectColumns = `
	id, title, description_ref, target, minimum_deposit,
	started_at, ended_at, vesting_start_time, vesting_end_time,
	vesting_interval, funded, claimed, force_stop, force_stop_ts
`

// NewPostgresStore creates a new PostgreSQL-backed cache store
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) initialize(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			description_ref TEXT NOT NULL,
			target TEXT NOT NULL,
			minimum_deposit TEXT NOT NULL,
			started_at BIGINT NOT NULL,
			ended_at BIGINT NOT NULL,
			vesting_start_time BIGINT NOT NULL,
			vesting_end_time BIGINT NOT NULL,
			vesting_interval BIGINT NOT NULL,
			funded TEXT NOT NULL,
			claimed TEXT NOT NULL,
			force_stop JSONB NOT NULL,
			force_stop_ts BIGINT NOT NULL DEFAULT 0
		)
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Newest returns the highest-id cached project, or nil when the cache is empty
func (s *PostgresStore) Newest(ctx context.Context) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id DESC LIMIT 1`

	project, err := scanProjectRow(s.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get newest project: %w", err)
	}

	return project, nil
}

// BulkInsert saves multiple projects in a transaction.
// Duplicate ids violate the primary key and fail the whole batch.
func (s *PostgresStore) BulkInsert(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, p := range projects {
		forceStopJSON, err := json.Marshal(p.ForceStop)
		if err != nil {
			return fmt.Errorf("failed to marshal force_stop: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			int64(p.ID),
			p.Title,
			p.DescriptionRef,
			p.Target,
			p.MinimumDeposit,
			p.StartedAt,
			p.EndedAt,
			p.VestingStartTime,
			p.VestingEndTime,
			p.VestingInterval,
			p.Funded,
			p.Claimed,
			forceStopJSON,
			p.ForceStopTs,
		)

		if err != nil {
			return fmt.Errorf("failed to insert project %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get retrieves a project by id
func (s *PostgresStore) Get(ctx context.Context, id uint64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProjectRow(s.pool.QueryRow(ctx, query, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}

	return project, nil
}

// List returns cached projects in ascending id order
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// Search returns projects whose title contains the query substring
func (s *PostgresStore) Search(ctx context.Context, query string, limit, offset int) ([]models.Project, error) {
	sql := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, sql, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// Count returns the number of cached projects
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// Clear removes all cached projects
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProjectRow(row rowScanner) (*models.Project, error) {
	var p models.Project
	var id int64
	var forceStopJSON []byte

	err := row.Scan(
		&id,
		&p.Title,
		&p.DescriptionRef,
		&p.Target,
		&p.MinimumDeposit,
		&p.StartedAt,
		&p.EndedAt,
		&p.VestingStartTime,
		&p.VestingEndTime,
		&p.VestingInterval,
		&p.Funded,
		&p.Claimed,
		&forceStopJSON,
		&p.ForceStopTs,
	)
	if err != nil {
		return nil, err
	}

	p.ID = uint64(id)
	if err := json.Unmarshal(forceStopJSON, &p.ForceStop); err != nil {
		return nil, fmt.Errorf("failed to unmarshal force_stop: %w", err)
	}

	return &p, nil
}

func scanProjects(rows pgx.Rows) ([]models.Project, error) {
	var projects []models.Project

	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}
