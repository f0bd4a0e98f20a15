package analytics

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeKV struct {
	data      map[string][]byte
	failWrite bool
	failRead  bool
	deletes   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Read(_ context.Context, key string) ([]byte, error) {
	if f.failRead {
		return nil, errors.New("read failed")
	}
	return f.data[key], nil
}

func (f *fakeKV) Write(_ context.Context, key string, value []byte) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.deletes++
	delete(f.data, key)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(store KV) (*Cache, *fakeClock) {
	clock := &fakeClock{now: testNow}
	c := NewCache("report", 5*time.Minute, store)
	c.now = clock.Now
	return c, clock
}

func putSample(ctx context.Context, c *Cache, projectIDs, userIDs []string) *Entry {
	users := []UserSummary{{UserID: "u1", Name: "Ada", CompletionRate: 67}}
	departments := []DepartmentSummary{{Department: "eng", MemberCount: 1}}
	projects := []ProjectSummary{{ProjectID: "p1", Name: "Apollo", DeadlineStatus: DeadlineOnTime}}
	return c.Put(ctx, users, departments, projects, projectIDs, userIDs)
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := Fingerprint([]string{"p2", "p1", "p3"})
	b := Fingerprint([]string{"p3", "p2", "p1"})
	if a != b {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
	if a != "p1,p2,p3" {
		t.Fatalf("unexpected fingerprint %q", a)
	}
}

func TestPutThenGet(t *testing.T) {
	c, _ := newTestCache(nil)
	ctx := context.Background()

	put := putSample(ctx, c, []string{"p1"}, []string{"u1", "u2"})
	got := c.Get(ctx, []string{"p1"}, []string{"u2", "u1"})
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if got != put {
		t.Fatal("expected same entry back")
	}
	if got.GeneratedAt != testNow {
		t.Fatalf("expected entry stamped at put time, got %v", got.GeneratedAt)
	}
}

func TestGetFingerprintMismatch(t *testing.T) {
	c, _ := newTestCache(nil)
	ctx := context.Background()

	putSample(ctx, c, []string{"p1"}, []string{"u1"})
	if got := c.Get(ctx, []string{"p1"}, []string{"u1", "u2"}); got != nil {
		t.Fatal("expected miss after user set changed")
	}
	// The mismatch cleared the slot, so the original sets miss too.
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got != nil {
		t.Fatal("expected slot cleared after invalidation")
	}
}

func TestGetExpiry(t *testing.T) {
	c, clock := newTestCache(nil)
	ctx := context.Background()

	putSample(ctx, c, []string{"p1"}, []string{"u1"})
	clock.Advance(5*time.Minute - time.Second)
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got == nil {
		t.Fatal("expected hit just inside TTL")
	}

	putSample(ctx, c, []string{"p1"}, []string{"u1"})
	clock.Advance(5 * time.Minute)
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got != nil {
		t.Fatal("expected miss past TTL with unchanged fingerprints")
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(nil)
	ctx := context.Background()

	putSample(ctx, c, []string{"p1"}, []string{"u1"})
	c.Clear(ctx)
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got != nil {
		t.Fatal("expected miss after clear")
	}
	if got := c.Peek(ctx); got != nil {
		t.Fatal("expected empty slot after clear")
	}
}

func TestPersistAndRestore(t *testing.T) {
	store := newFakeKV()
	ctx := context.Background()

	first, _ := newTestCache(store)
	putSample(ctx, first, []string{"p1"}, []string{"u1"})
	if len(store.data) != 1 {
		t.Fatal("expected entry persisted")
	}

	second, _ := newTestCache(store)
	got := second.Get(ctx, []string{"p1"}, []string{"u1"})
	if got == nil {
		t.Fatal("expected restored entry")
	}
	if len(got.Users) != 1 || got.Users[0].CompletionRate != 67 {
		t.Fatalf("restored entry mangled: %+v", got)
	}
}

func TestCorruptPersistedEntryCleared(t *testing.T) {
	store := newFakeKV()
	store.data["report"] = []byte("{not json")
	ctx := context.Background()

	c, _ := newTestCache(store)
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got != nil {
		t.Fatal("expected miss for corrupt entry")
	}
	if store.deletes != 1 {
		t.Fatalf("expected corrupt entry deleted, deletes=%d", store.deletes)
	}
}

func TestPersistenceFailureDegradesToMemory(t *testing.T) {
	store := newFakeKV()
	store.failWrite = true
	ctx := context.Background()

	c, _ := newTestCache(store)
	putSample(ctx, c, []string{"p1"}, []string{"u1"})
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got == nil {
		t.Fatal("expected in-memory hit despite persist failure")
	}
}

func TestReadFailureStartsEmpty(t *testing.T) {
	store := newFakeKV()
	store.failRead = true
	ctx := context.Background()

	c, _ := newTestCache(store)
	if got := c.Get(ctx, []string{"p1"}, []string{"u1"}); got != nil {
		t.Fatal("expected empty cache when read fails")
	}
}
