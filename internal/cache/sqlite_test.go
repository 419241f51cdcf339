package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"crowdcache/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func sampleProject(id uint64, title string) models.Project {
	return models.Project{
		ID:               id,
		Title:            title,
		DescriptionRef:   "bafytest",
		Target:           "5000",
		MinimumDeposit:   "1",
		StartedAt:        1_700_000_000_000,
		EndedAt:          1_700_000_100_000,
		VestingStartTime: 1_700_000_100_000,
		VestingEndTime:   1_700_000_200_000,
		VestingInterval:  50_000,
		Funded:           "0",
		Claimed:          "0",
	}
}

func TestSQLiteStoreEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	newest, err := store.Newest(ctx)
	if err != nil {
		t.Fatalf("Newest failed: %v", err)
	}
	if newest != nil {
		t.Errorf("Expected nil newest on empty store, got: %+v", newest)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0, got: %d", count)
	}

	if _, err := store.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestSQLiteStoreInsertAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	want := sampleProject(7, "Solar Farm")
	want.ForceStop = []string{"alice.voter"}
	want.ForceStopTs = 1_700_000_150_000

	if err := store.BulkInsert(ctx, []models.Project{want}); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	got, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Title != want.Title || got.Target != want.Target {
		t.Errorf("Record mismatch: got %+v", got)
	}
	if got.StartedAt != want.StartedAt || got.VestingInterval != want.VestingInterval {
		t.Errorf("Timestamp mismatch: got %+v", got)
	}
	if len(got.ForceStop) != 1 || got.ForceStop[0] != "alice.voter" {
		t.Errorf("Expected force stop list to round-trip, got: %v", got.ForceStop)
	}
	if got.ForceStopTs != want.ForceStopTs {
		t.Errorf("Expected force_stop_ts %d, got: %d", want.ForceStopTs, got.ForceStopTs)
	}
}

func TestSQLiteStoreNewest(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	batch := []models.Project{
		sampleProject(3, "Third"),
		sampleProject(1, "First"),
		sampleProject(2, "Second"),
	}
	if err := store.BulkInsert(ctx, batch); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	newest, err := store.Newest(ctx)
	if err != nil {
		t.Fatalf("Newest failed: %v", err)
	}
	if newest == nil || newest.ID != 3 {
		t.Errorf("Expected newest id 3, got: %+v", newest)
	}
}

func TestSQLiteStoreDuplicateBatchFails(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.BulkInsert(ctx, []models.Project{sampleProject(1, "First")}); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	// The duplicate fails the whole batch, including the fresh record
	err := store.BulkInsert(ctx, []models.Project{
		sampleProject(2, "Second"),
		sampleProject(1, "Duplicate"),
	})
	if err == nil {
		t.Fatal("Expected duplicate id to fail the batch")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected the failed batch rolled back, count=%d", count)
	}
	if _, err := store.Get(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected record 2 absent after rollback, got: %v", err)
	}
}

func TestSQLiteStoreListPagination(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	var batch []models.Project
	for i := uint64(1); i <= 5; i++ {
		batch = append(batch, sampleProject(i, "Project"))
	}
	if err := store.BulkInsert(ctx, batch); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	page, err := store.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != 3 || page[1].ID != 4 {
		t.Errorf("Expected ids [3 4], got: %+v", page)
	}

	empty, err := store.List(ctx, 10, 100)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected empty page past the end, got: %+v", empty)
	}
}

func TestSQLiteStoreSearch(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	batch := []models.Project{
		sampleProject(1, "Community Garden"),
		sampleProject(2, "Solar Farm"),
		sampleProject(3, "garden tools library"),
	}
	if err := store.BulkInsert(ctx, batch); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}

	matches, err := store.Search(ctx, "GARDEN", 10, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != 1 || matches[1].ID != 3 {
		t.Errorf("Expected case-insensitive matches [1 3], got: %+v", matches)
	}

	none, err := store.Search(ctx, "windmill", 10, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no matches, got: %+v", none)
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.BulkInsert(ctx, []models.Project{sampleProject(1, "First")}); err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty store after clear, count=%d", count)
	}
}
