package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/domain/core"
)

type fakeDir struct {
	users    []core.User
	projects []core.Project
	err      error

	block         chan struct{}
	listUserCalls int32
}

func (d *fakeDir) ListUsers(_ context.Context) ([]core.User, error) {
	atomic.AddInt32(&d.listUserCalls, 1)
	if d.block != nil {
		<-d.block
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.users, nil
}

func (d *fakeDir) ListProjects(_ context.Context) ([]core.Project, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.projects, nil
}

func newTestScheduler(src DataSource, dir Directory) *Scheduler {
	cache, _ := newTestCache(nil)
	s := NewScheduler(newTestEngine(src), cache, dir)
	s.now = func() time.Time { return testNow }
	return s
}

func waitForState(t *testing.T, s *Scheduler, want State) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("scheduler never reached state %s", want)
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	dir := &fakeDir{
		users:    []core.User{{ID: "u1", Name: "Ada", Department: "eng"}},
		projects: []core.Project{{ID: "p1", Name: "Apollo", Status: core.ProjectStatusActive}},
	}
	src := &fakeSource{
		tasksByUser:    map[string][]core.Task{"u1": {task("t1", core.TaskStateClosed, "p1", "u1")}},
		tasksByProject: map[string][]core.Task{"p1": {task("t1", core.TaskStateClosed, "p1", "u1")}},
	}
	s := newTestScheduler(src, dir)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected idle after success, got %s", s.State())
	}

	snap := s.Snapshot(context.Background())
	if len(snap.Users) != 1 || len(snap.Departments) != 1 || len(snap.Projects) != 1 {
		t.Fatalf("expected all three summary sets, got %+v", snap)
	}
	if snap.Users[0].CompletionRate != 100 {
		t.Fatalf("expected rate 100, got %d", snap.Users[0].CompletionRate)
	}
	if snap.LastUpdated == nil || !snap.LastUpdated.Equal(testNow) {
		t.Fatalf("expected lastUpdated %v, got %v", testNow, snap.LastUpdated)
	}
	if snap.Error != "" || snap.Loading {
		t.Fatalf("expected clean status, got %+v", snap)
	}
}

func TestOverlappingRefreshCoalesces(t *testing.T) {
	dir := &fakeDir{
		users: []core.User{{ID: "u1"}},
		block: make(chan struct{}),
	}
	s := newTestScheduler(&fakeSource{}, dir)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	waitForState(t, s, StateLoading)

	// Second call while loading must not run the pipeline again.
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("coalesced refresh returned error: %v", err)
	}

	close(dir.block)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := atomic.LoadInt32(&dir.listUserCalls); calls != 1 {
		t.Fatalf("expected exactly one pipeline execution, got %d", calls)
	}
}

func TestRefreshErrorKeepsPreviousEntry(t *testing.T) {
	dir := &fakeDir{
		users:    []core.User{{ID: "u1", Name: "Ada", Department: "eng"}},
		projects: []core.Project{{ID: "p1", Status: core.ProjectStatusActive}},
	}
	src := &fakeSource{
		tasksByUser: map[string][]core.Task{"u1": {task("t1", core.TaskStateClosed, "p1", "u1")}},
	}
	s := newTestScheduler(src, dir)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir.err = errors.New("database unreachable")
	if err := s.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}
	if s.State() != StateError {
		t.Fatalf("expected error state, got %s", s.State())
	}

	snap := s.Snapshot(ctx)
	if snap.Error == "" {
		t.Fatal("expected error surfaced in snapshot")
	}
	if len(snap.Users) != 1 {
		t.Fatal("expected stale summaries to keep serving")
	}
	if snap.LastUpdated == nil {
		t.Fatal("expected last successful update timestamp retained")
	}

	// The next successful attempt resets the error state.
	dir.err = nil
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected idle after recovery, got %s", s.State())
	}
	if snap := s.Snapshot(ctx); snap.Error != "" {
		t.Fatalf("expected error cleared, got %q", snap.Error)
	}
}

func TestSummariesComputesOnMissAndServesCached(t *testing.T) {
	dir := &fakeDir{
		users:    []core.User{{ID: "u1", Name: "Ada", Department: "eng"}},
		projects: []core.Project{{ID: "p1", Status: core.ProjectStatusActive}},
	}
	src := &fakeSource{
		tasksByUser: map[string][]core.Task{"u1": {task("t1", core.TaskStateClosed, "p1", "u1")}},
	}
	s := newTestScheduler(src, dir)
	ctx := context.Background()

	before := atomic.LoadInt32(&dir.listUserCalls)
	first := s.Summaries(ctx)
	if len(first.Users) != 1 {
		t.Fatalf("expected computed summaries on miss, got %+v", first)
	}
	afterFirst := atomic.LoadInt32(&dir.listUserCalls)
	if afterFirst <= before {
		t.Fatal("expected pipeline execution on cache miss")
	}

	second := s.Summaries(ctx)
	if len(second.Users) != 1 {
		t.Fatalf("expected cached summaries, got %+v", second)
	}
	// Only the fingerprint listing ran; the pipeline did not.
	if got := atomic.LoadInt32(&dir.listUserCalls); got != afterFirst+1 {
		t.Fatalf("expected no recomputation on valid cache, calls went %d -> %d", afterFirst, got)
	}
}

func TestStopIdempotent(t *testing.T) {
	s := newTestScheduler(&fakeSource{}, &fakeDir{})

	s.Stop()
	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, time.Hour)
	s.Start(ctx, time.Hour)
	s.Stop()
	s.Stop()
}
