package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/platform/kv"
)

func TestCacheSurvivesRestartThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	store, err := kv.New(ctx, mr.Addr())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	first := NewCache("report", 5*time.Minute, store)
	first.now = func() time.Time { return testNow }
	putSample(ctx, first, []string{"p1"}, []string{"u1"})

	// A fresh cache over the same store stands in for a restarted process.
	second := NewCache("report", 5*time.Minute, store)
	second.now = func() time.Time { return testNow.Add(time.Minute) }

	entry := second.Get(ctx, []string{"p1"}, []string{"u1"})
	require.NotNil(t, entry)
	assert.Equal(t, 67, entry.Users[0].CompletionRate)
	assert.Equal(t, "p1", entry.ProjectFingerprint)

	// Expired entries are cleared from redis as well.
	third := NewCache("report", 5*time.Minute, store)
	third.now = func() time.Time { return testNow.Add(time.Hour) }
	assert.Nil(t, third.Get(ctx, []string{"p1"}, []string{"u1"}))

	data, err := store.Read(ctx, "report")
	require.NoError(t, err)
	assert.Nil(t, data)
}
