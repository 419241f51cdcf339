package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crowdcache/internal/cache"
	"crowdcache/internal/ledger"
	"crowdcache/internal/metrics"
	"crowdcache/internal/models"
)

// DefaultPageLimit is the number of records requested per ledger fetch.
const DefaultPageLimit = 500

// Synchronizer incrementally catches the local cache up with the ledger.
//
// The ledger serves pages newest-first from index 0, so the newest cached
// record (the anchor) is guaranteed to reappear verbatim during a forward
// scan. Everything before the anchor in its page is genuinely new; everything
// from the anchor onward is already cached. The scan buffers the new records
// and commits them in a single bulk insert at the end: a failed run leaves
// the cache exactly as it found it, so re-invocation is always safe. Partial
// commits would be poison here since the newest records land first and would
// move the anchor past everything older that never made it in.
type Synchronizer struct {
	client    ledger.Client
	store     cache.Store
	pageLimit uint64

	// Serializes runs; concurrent bulk inserts would race on the anchor read
	mu sync.Mutex
}

// New creates a Synchronizer. A pageLimit of 0 selects DefaultPageLimit.
func New(client ledger.Client, store cache.Store, pageLimit uint64) *Synchronizer {
	if pageLimit == 0 {
		pageLimit = DefaultPageLimit
	}
	return &Synchronizer{
		client:    client,
		store:     store,
		pageLimit: pageLimit,
	}
}

// Synchronize pulls all ledger records newer than the cache's anchor and
// inserts them. With clear set, the cache is emptied first (full resync).
//
// Any transport, mapping, or store failure aborts the run and is returned as
// a *SyncError; a failed run commits nothing. The synchronizer never retries
// internally - retry policy belongs to the caller. A second call while one
// is running fails fast with ErrInFlight.
func (s *Synchronizer) Synchronize(ctx context.Context, clear bool) error {
	if !s.mu.TryLock() {
		return ErrInFlight
	}
	defer s.mu.Unlock()

	started := time.Now()
	err := s.run(ctx, clear)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SyncRuns.WithLabelValues(status).Inc()
	metrics.SyncDuration.Observe(time.Since(started).Seconds())

	return err
}

func (s *Synchronizer) run(ctx context.Context, clear bool) error {
	if clear {
		if err := s.store.Clear(ctx); err != nil {
			return syncErr(KindStore, 0, err)
		}
		slog.Info("Cache cleared for full resync")
	}

	anchor, err := s.store.Newest(ctx)
	if err != nil {
		return syncErr(KindStore, 0, err)
	}

	if anchor != nil {
		slog.Debug("Starting incremental sync", "anchor_id", anchor.ID)
	} else {
		slog.Debug("Starting full sync, cache is empty")
	}

	var cursor uint64
	var pending []models.Project

	for {
		// Check if context is cancelled before fetching the next page
		select {
		case <-ctx.Done():
			slog.Warn("Sync cancelled", "offset", cursor)
			return ctx.Err()
		default:
		}

		page, err := s.client.FetchPage(ctx, cursor, s.pageLimit)
		if err != nil {
			return syncErr(KindTransport, cursor, err)
		}
		metrics.PagesFetched.Inc()

		// Empty page: caught up to the ledger head
		if len(page) == 0 {
			break
		}

		projects, err := ledger.MapProjects(page)
		if err != nil {
			return syncErr(KindMapping, cursor, err)
		}

		if anchor != nil {
			if i, found := findAnchor(projects, anchor.ID); found {
				// Only the slice before the anchor is new; the rest of the
				// ledger's records are already cached
				pending = append(pending, projects[:i]...)
				break
			}
		}

		pending = append(pending, projects...)

		// A short page means the scan reached the ledger's oldest records
		if uint64(len(page)) < s.pageLimit {
			break
		}
		cursor += s.pageLimit
	}

	if err := s.store.BulkInsert(ctx, pending); err != nil {
		return syncErr(KindStore, cursor, err)
	}

	s.finish(ctx, len(pending))
	return nil
}

func (s *Synchronizer) finish(ctx context.Context, inserted int) {
	metrics.ProjectsInserted.Add(float64(inserted))

	if count, err := s.store.Count(ctx); err == nil {
		metrics.CachedProjects.Set(float64(count))
	}

	slog.Info("Sync complete", "inserted", inserted)
}

func findAnchor(projects []models.Project, anchorID uint64) (int, bool) {
	for i, p := range projects {
		if p.ID == anchorID {
			return i, true
		}
	}
	return 0, false
}
