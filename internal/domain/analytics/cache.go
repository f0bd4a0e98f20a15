package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"taskboard/internal/platform/metrics"
)

// KV is the optional durable backing for the report cache. Read
// returns nil bytes without error for a missing key. Failures degrade
// the cache to in-memory only and never fail a refresh cycle.
type KV interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Entry is one complete published report. Entries are immutable once
// produced and replaced as a whole.
type Entry struct {
	Users              []UserSummary       `json:"users"`
	Departments        []DepartmentSummary `json:"departments"`
	Projects           []ProjectSummary    `json:"projects"`
	GeneratedAt        time.Time           `json:"generatedAt"`
	ProjectFingerprint string              `json:"projectFingerprint"`
	UserFingerprint    string              `json:"userFingerprint"`
}

// Fingerprint digests an id set into a deterministic, order-independent
// validity key.
func Fingerprint(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Cache holds the most recent complete report for one logical report
// key. Writes win by recency; there is no merging.
type Cache struct {
	key   string
	ttl   time.Duration
	store KV
	now   func() time.Time

	mu     sync.Mutex
	entry  *Entry
	loaded bool
}

func NewCache(key string, ttl time.Duration, store KV) *Cache {
	return &Cache{key: key, ttl: ttl, store: store, now: time.Now}
}

// Get returns the cached entry when it is younger than the TTL and was
// computed for the same project and user id sets. An invalid entry is
// cleared before returning nil.
func (c *Cache) Get(ctx context.Context, projectIDs, userIDs []string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)

	if c.entry == nil {
		metrics.RecordCacheMiss()
		return nil
	}
	valid := c.now().Sub(c.entry.GeneratedAt) < c.ttl &&
		c.entry.ProjectFingerprint == Fingerprint(projectIDs) &&
		c.entry.UserFingerprint == Fingerprint(userIDs)
	if !valid {
		c.clearLocked(ctx)
		metrics.RecordCacheMiss()
		return nil
	}
	metrics.RecordCacheHit()
	return c.entry
}

// Peek returns whatever entry is held, without validity checks. The
// dashboard uses it to keep showing stale data next to an error
// indicator.
func (c *Cache) Peek(ctx context.Context) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(ctx)
	return c.entry
}

// Put replaces the slot with a fresh entry stamped at call time and
// persists it best-effort.
func (c *Cache) Put(ctx context.Context, users []UserSummary, departments []DepartmentSummary, projects []ProjectSummary, projectIDs, userIDs []string) *Entry {
	entry := &Entry{
		Users:              users,
		Departments:        departments,
		Projects:           projects,
		GeneratedAt:        c.now(),
		ProjectFingerprint: Fingerprint(projectIDs),
		UserFingerprint:    Fingerprint(userIDs),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = entry
	c.loaded = true

	if c.store != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			slog.Warn("report cache marshal failed", "err", err)
			return entry
		}
		if err := c.store.Write(ctx, c.key, data); err != nil {
			slog.Warn("report cache persist failed, continuing in-memory", "err", err)
		}
	}
	return entry
}

func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.clearLocked(ctx)
}

func (c *Cache) clearLocked(ctx context.Context) {
	c.entry = nil
	if c.store != nil {
		if err := c.store.Delete(ctx, c.key); err != nil {
			slog.Warn("report cache delete failed", "err", err)
		}
	}
}

// loadLocked restores a persisted entry once per process. A stored
// entry that fails to decode is treated as corrupt and removed.
func (c *Cache) loadLocked(ctx context.Context) {
	if c.loaded || c.store == nil {
		c.loaded = true
		return
	}
	c.loaded = true

	data, err := c.store.Read(ctx, c.key)
	if err != nil {
		slog.Warn("report cache read failed, starting empty", "err", err)
		return
	}
	if data == nil {
		return
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Warn("report cache entry corrupt, clearing", "err", err)
		if err := c.store.Delete(ctx, c.key); err != nil {
			slog.Warn("report cache delete failed", "err", err)
		}
		return
	}
	c.entry = &entry
}
