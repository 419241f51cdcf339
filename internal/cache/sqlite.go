package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"crowdcache/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using an embedded SQLite database. This is
// the local-cache deployment: no external database, one file next to the
// process.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the cache database at dbPath.
// Use ":memory:" for a throwaway in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps :memory: databases from splitting across the
	// pool; the store serializes writes anyway.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		description_ref TEXT NOT NULL,
		target TEXT NOT NULL,
		minimum_deposit TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		vesting_start_time INTEGER NOT NULL,
		vesting_end_time INTEGER NOT NULL,
		vesting_interval INTEGER NOT NULL,
		funded TEXT NOT NULL,
		claimed TEXT NOT NULL,
		force_stop TEXT NOT NULL,
		force_stop_ts INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_projects_title ON projects(title);
	`
	_, err := s.db.Exec(schema)
	return err
}

const sqliteColumns = `id, title, description_ref, target, minimum_deposit,
	started_at, ended_at, vesting_start_time, vesting_end_time,
	vesting_interval, funded, claimed, force_stop, force_stop_ts`

// Newest returns the highest-id cached project, or nil when the cache is empty.
func (s *SQLiteStore) Newest(ctx context.Context) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM projects ORDER BY id DESC LIMIT 1`)

	project, err := scanProjectRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get newest project: %w", err)
	}

	return project, nil
}

// BulkInsert writes all projects in one transaction; duplicate ids fail the
// whole batch via the primary key.
func (s *SQLiteStore) BulkInsert(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO projects (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range projects {
		forceStopJSON, err := json.Marshal(p.ForceStop)
		if err != nil {
			return fmt.Errorf("marshal force_stop: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			int64(p.ID), p.Title, p.DescriptionRef, p.Target, p.MinimumDeposit,
			p.StartedAt, p.EndedAt, p.VestingStartTime, p.VestingEndTime,
			p.VestingInterval, p.Funded, p.Claimed, string(forceStopJSON), p.ForceStopTs,
		)
		if err != nil {
			return fmt.Errorf("insert project %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Get retrieves a project by id.
func (s *SQLiteStore) Get(ctx context.Context, id uint64) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM projects WHERE id = ?`, int64(id))

	project, err := scanProjectRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}

	return project, nil
}

// List returns cached projects in ascending id order.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM projects ORDER BY id ASC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	return s.scanAll(rows)
}

// Search returns projects whose title contains the query substring,
// case-insensitively.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit, offset int) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM projects WHERE LOWER(title) LIKE ? ORDER BY id ASC LIMIT ? OFFSET ?`,
		pattern, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	defer rows.Close()

	return s.scanAll(rows)
}

// Count returns the number of cached projects.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

// Clear removes all cached projects.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) scanAll(rows *sql.Rows) ([]models.Project, error) {
	var projects []models.Project

	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return projects, nil
}
