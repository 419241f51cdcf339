package cache

import (
	"context"
	"errors"

	"crowdcache/internal/models"
)

// ErrNotFound is returned when a project id is not in the cache.
var ErrNotFound = errors.New("project not found")

// Store is the durable cache holding the local mirror of the ledger's
// project records. Ids are unique; insertion attempts that collide with an
// existing id must fail so the synchronizer's prefix-only discipline is
// enforced by the store itself.
type Store interface {
	// Newest returns the record with the highest id, or nil when the cache
	// is empty. This is the synchronizer's anchor.
	Newest(ctx context.Context) (*models.Project, error)

	// BulkInsert writes all records in a single transaction. Any duplicate
	// id fails the whole batch.
	BulkInsert(ctx context.Context, projects []models.Project) error

	// Get returns a single record by id, or ErrNotFound.
	Get(ctx context.Context, id uint64) (*models.Project, error)

	// List returns records in ascending id order.
	List(ctx context.Context, limit, offset int) ([]models.Project, error)

	// Search returns records whose title contains the query substring
	// (case-insensitive), in ascending id order.
	Search(ctx context.Context, query string, limit, offset int) ([]models.Project, error)

	// Count returns the number of cached records.
	Count(ctx context.Context) (int, error)

	// Clear removes all cached records.
	Clear(ctx context.Context) error

	// Ping checks that the underlying storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
