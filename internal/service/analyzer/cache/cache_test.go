package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string  `json:"title"`
	Total float64 `json:"total"`
}

func newSQLiteForTest(t *testing.T, ttl time.Duration) *SQLite[entry] {
	t.Helper()

	c, err := OpenSQLite[entry](context.Background(), filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestCache_Backends(t *testing.T) {
	backends := map[string]func(t *testing.T) Cache[entry]{
		"memory": func(t *testing.T) Cache[entry] { return NewMemory[entry](16, time.Hour) },
		"sqlite": func(t *testing.T) Cache[entry] { return newSQLiteForTest(t, time.Hour) },
	}

	for name, newCache := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newCache(t)

			_, ok := c.Get(ctx, "trendyol:trendyol.com/x-p-1")
			assert.False(t, ok)

			c.Set(ctx, "trendyol:trendyol.com/x-p-1", entry{Title: "Kulaklık", Total: 1299})
			got, ok := c.Get(ctx, "trendyol:trendyol.com/x-p-1")
			require.True(t, ok)
			assert.Equal(t, entry{Title: "Kulaklık", Total: 1299}, got)

			// 마지막 쓰기가 이깁니다.
			c.Set(ctx, "trendyol:trendyol.com/x-p-1", entry{Title: "Kulaklık", Total: 1199})
			got, ok = c.Get(ctx, "trendyol:trendyol.com/x-p-1")
			require.True(t, ok)
			assert.Equal(t, 1199.0, got.Total)

			c.Delete(ctx, "trendyol:trendyol.com/x-p-1")
			_, ok = c.Get(ctx, "trendyol:trendyol.com/x-p-1")
			assert.False(t, ok)

			// 없는 키 삭제는 무시됩니다.
			c.Delete(ctx, "missing")

			assert.NoError(t, c.Close())
		})
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[entry](16, 50*time.Millisecond)

	c.Set(ctx, "k", entry{Total: 10})
	_, ok := c.Get(ctx, "k")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemory_PurgeRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[entry](16, 24*time.Hour)

	c.Set(ctx, "a", entry{Total: 1})
	c.Set(ctx, "b", entry{Total: 2})

	assert.Equal(t, 0, c.Purge(ctx))
	assert.Equal(t, 2, c.Len())
}

func TestSQLite_TTLAndPurge(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteForTest(t, time.Hour)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "old", entry{Total: 1})
	now = now.Add(30 * time.Minute)
	c.Set(ctx, "new", entry{Total: 2})

	_, ok := c.Get(ctx, "old")
	assert.True(t, ok)

	// old 만 만료됩니다.
	now = now.Add(45 * time.Minute)
	_, ok = c.Get(ctx, "old")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "new")
	assert.True(t, ok)

	assert.Equal(t, 1, c.Purge(ctx))
	assert.Equal(t, 0, c.Purge(ctx))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := OpenSQLite[entry](ctx, path, time.Hour)
	require.NoError(t, err)
	c.Set(ctx, "k", entry{Title: "Saat", Total: 500})
	require.NoError(t, c.Close())

	reopened, err := OpenSQLite[entry](ctx, path, time.Hour)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "Saat", got.Title)
}

func TestSQLite_BackendErrorIsMiss(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteForTest(t, time.Hour)
	require.NoError(t, c.db.Close())

	assert.NotPanics(t, func() {
		c.Set(ctx, "k", entry{Total: 1})
		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
		c.Delete(ctx, "k")
		assert.Equal(t, 0, c.Purge(ctx))
	})
}

func TestSQLite_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteForTest(t, time.Hour)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "k", entry{Total: float64(i)})
			_, _ = c.Get(ctx, "k")
		}(i)
	}
	wg.Wait()

	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New[entry](ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory[entry]{}, c)

	c, err = New[entry](ctx, Options{Backend: "SQLITE", Path: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite[entry]{}, c)
	require.NoError(t, c.Close())

	_, err = New[entry](ctx, Options{Backend: "redis"})
	assert.Error(t, err)
}
