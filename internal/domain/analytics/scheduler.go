package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taskboard/internal/domain/core"
	"taskboard/internal/platform/metrics"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Directory lists the entity sets the report is computed over.
type Directory interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	ListProjects(ctx context.Context) ([]core.Project, error)
}

// Scheduler drives periodic recomputation of the report and exposes
// manual refresh. One scheduler owns one report's cache slot.
type Scheduler struct {
	engine *Engine
	cache  *Cache
	dir    Directory
	now    func() time.Time

	mu          sync.Mutex
	state       State
	lastUpdated time.Time
	lastError   string

	started bool
	stop    chan struct{}
}

func NewScheduler(engine *Engine, cache *Cache, dir Directory) *Scheduler {
	return &Scheduler{
		engine: engine,
		cache:  cache,
		dir:    dir,
		now:    time.Now,
		state:  StateIdle,
	}
}

// Start begins the repeating refresh timer. Ticks that land while a
// refresh is in flight are skipped.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					slog.Warn("scheduled report refresh failed", "err", err)
				}
			}
		}
	}()
}

// Stop cancels future ticks. It does not cancel an in-flight refresh
// and is safe to call repeatedly or before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	close(s.stop)
	s.started = false
}

// Refresh runs the full aggregation pipeline and publishes the result
// atomically. A call that arrives while another refresh is in flight
// coalesces into a no-op.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	start := time.Now()
	err := s.run(ctx)
	duration := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateError
		s.lastError = err.Error()
		metrics.RecordRefresh("failure", duration)
		return err
	}
	s.state = StateIdle
	s.lastError = ""
	s.lastUpdated = s.now()
	metrics.RecordRefresh("success", duration)
	return nil
}

// run computes all three summary sets concurrently and installs them
// into the cache only when every one succeeded; on error the previous
// entry stays in effect.
func (s *Scheduler) run(ctx context.Context) error {
	users, err := s.dir.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	projects, err := s.dir.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	var (
		userSummaries    []UserSummary
		deptSummaries    []DepartmentSummary
		projectSummaries []ProjectSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userSummaries, err = s.engine.UserSummaries(gctx, users, projects)
		return err
	})
	g.Go(func() error {
		var err error
		deptSummaries, err = s.engine.DepartmentSummaries(gctx, users, projects)
		return err
	})
	g.Go(func() error {
		var err error
		projectSummaries, err = s.engine.ProjectSummaries(gctx, projects, users)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	s.cache.Put(ctx, userSummaries, deptSummaries, projectSummaries, projectIDs(projects), userIDs(users))
	return nil
}

// Summaries serves the dashboard read path: a valid cache entry is
// returned as-is, a miss or expired entry triggers a synchronous
// recomputation first.
func (s *Scheduler) Summaries(ctx context.Context) Snapshot {
	users, uerr := s.dir.ListUsers(ctx)
	projects, perr := s.dir.ListProjects(ctx)
	if uerr == nil && perr == nil {
		if entry := s.cache.Get(ctx, projectIDs(projects), userIDs(users)); entry == nil {
			// Refresh errors surface through the snapshot's Error field.
			_ = s.Refresh(ctx)
		}
	}
	return s.Snapshot(ctx)
}

// Snapshot reports the current entry and refresh status without
// triggering any computation.
func (s *Scheduler) Snapshot(ctx context.Context) Snapshot {
	entry := s.cache.Peek(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Loading: s.state == StateLoading,
		Error:   s.lastError,
	}
	if !s.lastUpdated.IsZero() {
		updated := s.lastUpdated
		snap.LastUpdated = &updated
	}
	if entry != nil {
		snap.Users = entry.Users
		snap.Departments = entry.Departments
		snap.Projects = entry.Projects
	}
	return snap
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func userIDs(users []core.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func projectIDs(projects []core.Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}
