package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdcache/internal/cache"
	"crowdcache/internal/models"
	"crowdcache/internal/syncer"
)

// emptyLedger answers every page request with an empty page
type emptyLedger struct{}

func (emptyLedger) FetchPage(ctx context.Context, from, limit uint64) ([]models.RawProject, error) {
	return nil, nil
}

// failingLedger refuses every page request
type failingLedger struct{}

func (failingLedger) FetchPage(ctx context.Context, from, limit uint64) ([]models.RawProject, error) {
	return nil, errors.New("connection refused")
}

func seedProject(id uint64, title string) models.Project {
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

func newTestServer(t *testing.T, seed ...models.Project) (*Server, *cache.MemoryStore) {
	t.Helper()

	store := cache.NewMemoryStore()
	if len(seed) > 0 {
		if err := store.BulkInsert(context.Background(), seed); err != nil {
			t.Fatalf("Seeding store failed: %v", err)
		}
	}

	return NewServer(0, store, syncer.New(emptyLedger{}, store, 500)), store
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got: %v", body["status"])
	}
}

func TestHandleIndexUnknownPath(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got: %d", rec.Code)
	}
}

func TestListProjects(t *testing.T) {
	s, _ := newTestServer(t,
		seedProject(1, "Community Garden"),
		seedProject(2, "Solar Farm"),
		seedProject(3, "Garden Tools"),
	)

	rec := doRequest(s, http.MethodGet, "/projects")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.ProjectListResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(body.Projects) != 3 || body.Total != 3 {
		t.Errorf("Expected 3 projects, got %d (total %d)", len(body.Projects), body.Total)
	}
	if body.Page != 1 || body.PageSize != 50 {
		t.Errorf("Expected page 1 size 50, got page %d size %d", body.Page, body.PageSize)
	}
	if body.Projects[0].ID != 1 {
		t.Errorf("Expected ascending id order, first id: %d", body.Projects[0].ID)
	}
}

func TestListProjectsPagination(t *testing.T) {
	s, _ := newTestServer(t,
		seedProject(1, "First"),
		seedProject(2, "Second"),
		seedProject(3, "Third"),
	)

	rec := doRequest(s, http.MethodGet, "/projects?limit=2&offset=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.ProjectListResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(body.Projects) != 1 || body.Projects[0].ID != 3 {
		t.Errorf("Expected last page with id 3, got: %+v", body.Projects)
	}
	if body.Page != 2 {
		t.Errorf("Expected page 2, got: %d", body.Page)
	}
}

func TestListProjectsSearch(t *testing.T) {
	s, _ := newTestServer(t,
		seedProject(1, "Community Garden"),
		seedProject(2, "Solar Farm"),
		seedProject(3, "Garden Tools"),
	)

	rec := doRequest(s, http.MethodGet, "/projects?q=garden")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.ProjectListResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(body.Projects) != 2 {
		t.Errorf("Expected 2 matches, got: %+v", body.Projects)
	}
}

func TestGetProject(t *testing.T) {
	s, _ := newTestServer(t, seedProject(7, "Solar Farm"))

	rec := doRequest(s, http.MethodGet, "/projects/7")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.Project
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.ID != 7 || body.Title != "Solar Farm" {
		t.Errorf("Unexpected project: %+v", body)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/projects/999")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got: %d", rec.Code)
	}

	var body models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if body.Code != http.StatusNotFound {
		t.Errorf("Expected code 404 in body, got: %d", body.Code)
	}
}

func TestGetProjectBadID(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/projects/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric id, got: %d", rec.Code)
	}
}

func TestGetStagePending(t *testing.T) {
	nowMs := time.Now().UnixMilli()

	p := seedProject(1, "Upcoming")
	p.StartedAt = nowMs + 2*3600_000
	p.EndedAt = nowMs + 3*3600_000
	p.VestingStartTime = nowMs + 3*3600_000
	p.VestingEndTime = nowMs + 4*3600_000
	p.VestingInterval = 1800_000

	s, _ := newTestServer(t, p)

	rec := doRequest(s, http.MethodGet, "/projects/1/stage")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.StageResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Stage != "pending" {
		t.Errorf("Expected stage pending, got: %s", body.Stage)
	}
	if body.RemainingMs == nil || *body.RemainingMs <= 0 {
		t.Errorf("Expected a positive remaining time, got: %v", body.RemainingMs)
	}
	if body.Countdown == nil || body.Countdown.Unit == "" {
		t.Errorf("Expected a countdown, got: %+v", body.Countdown)
	}
}

func TestGetStageComplete(t *testing.T) {
	// All milestones in the past, no force stop
	s, _ := newTestServer(t, seedProject(1, "Done"))

	rec := doRequest(s, http.MethodGet, "/projects/1/stage")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.StageResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Stage != "complete" {
		t.Errorf("Expected stage complete, got: %s", body.Stage)
	}
	if body.RemainingMs != nil || body.Countdown != nil {
		t.Errorf("Expected no countdown for a terminal stage, got: %+v", body)
	}
}

func TestSyncTrigger(t *testing.T) {
	s, _ := newTestServer(t, seedProject(1, "First"), seedProject(2, "Second"))

	rec := doRequest(s, http.MethodPost, "/sync")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d (%s)", rec.Code, rec.Body.String())
	}

	var body models.SyncResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Status != "ok" || body.Cached != 2 || body.Cleared {
		t.Errorf("Unexpected sync response: %+v", body)
	}
}

func TestSyncTriggerClear(t *testing.T) {
	s, store := newTestServer(t, seedProject(1, "Stale"))

	rec := doRequest(s, http.MethodPost, "/sync?clear=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", rec.Code)
	}

	var body models.SyncResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Cleared || body.Cached != 0 {
		t.Errorf("Expected an empty cache after clearing resync, got: %+v", body)
	}

	if count, _ := store.Count(context.Background()); count != 0 {
		t.Errorf("Expected store cleared, count=%d", count)
	}
}

func TestSyncTriggerMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/sync"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /sync, got: %d", rec.Code)
	}
}

func TestSyncTriggerUpstreamFailure(t *testing.T) {
	store := cache.NewMemoryStore()
	s := NewServer(0, store, syncer.New(failingLedger{}, store, 500))

	rec := doRequest(s, http.MethodPost, "/sync")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 when the ledger is unreachable, got: %d", rec.Code)
	}
}

func TestSyncTriggerConflict(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	store := cache.NewMemoryStore()
	sync := syncer.New(blockingLedger{started: started, release: release}, store, 500)
	s := NewServer(0, store, sync)

	go func() {
		_ = sync.Synchronize(context.Background(), false)
	}()
	<-started

	rec := doRequest(s, http.MethodPost, "/sync")
	close(release)

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 while a sync is in flight, got: %d", rec.Code)
	}
}

// blockingLedger parks its first fetch until released
type blockingLedger struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingLedger) FetchPage(ctx context.Context, from, limit uint64) ([]models.RawProject, error) {
	select {
	case <-b.started:
	default:
		close(b.started)
	}
	<-b.release
	return nil, nil
}
