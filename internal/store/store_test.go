package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStorageContract(t *testing.T, s Storage) {
	ctx := context.Background()

	t.Run("missing browser yields empty map", func(t *testing.T) {
		items, err := s.GetItems(ctx, "nobody", KeyToken)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("set then get subset", func(t *testing.T) {
		require.NoError(t, s.SetItems(ctx, "b1", map[string]string{
			KeyToken: "tok", KeyRole: "USER", KeyEmail: "a@b.c",
		}))
		items, err := s.GetItems(ctx, "b1", KeyToken, KeyEmail, KeyUserID)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{KeyToken: "tok", KeyEmail: "a@b.c"}, items)
	})

	t.Run("get all", func(t *testing.T) {
		items, err := s.GetItems(ctx, "b1")
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("overwrite merges", func(t *testing.T) {
		require.NoError(t, s.SetItems(ctx, "b1", map[string]string{KeyRole: "ADMIN"}))
		v, ok, err := GetItem(ctx, s, "b1", KeyRole)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "ADMIN", v)
	})

	t.Run("remove items", func(t *testing.T) {
		require.NoError(t, s.RemoveItems(ctx, "b1", KeyRole))
		_, ok, err := GetItem(ctx, s, "b1", KeyRole)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("browsers are isolated", func(t *testing.T) {
		require.NoError(t, s.SetItems(ctx, "b2", map[string]string{KeyToken: "other"}))
		v, _, err := GetItem(ctx, s, "b1", KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "tok", v)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx, "b1"))
		require.NoError(t, s.Clear(ctx, "b1"))
		items, err := s.GetItems(ctx, "b1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("empty browser id rejected", func(t *testing.T) {
		assert.ErrorIs(t, s.SetItems(ctx, "", map[string]string{"k": "v"}), ErrEmptyBrowserID)
	})

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	runStorageContract(t, NewMemoryStore(time.Hour))
}

func TestBoltStore(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "nested", "browser.db"), time.Hour)
	require.NoError(t, err)
	defer s.Close()
	runStorageContract(t, s)
}

func TestMemoryStorePurgeStale(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.SetItems(ctx, "old", map[string]string{"k": "v"}))
	s.now = func() time.Time { return base.Add(50 * time.Minute) }
	require.NoError(t, s.SetItems(ctx, "fresh", map[string]string{"k": "v"}))

	n, err := s.PurgeStale(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, _ := s.GetItems(ctx, "old")
	assert.Empty(t, items)
	items, _ = s.GetItems(ctx, "fresh")
	assert.Len(t, items, 1)
}

func TestMemoryStoreReadKeepsBrowserAlive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.SetItems(ctx, "reader", map[string]string{KeyToken: "tok"}))
	s.now = func() time.Time { return base.Add(50 * time.Minute) }
	_, err := s.GetItems(ctx, "reader", KeyToken)
	require.NoError(t, err)

	n, err := s.PurgeStale(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBoltStorePurgeStale(t *testing.T) {
	ctx := context.Background()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "browser.db"), time.Hour)
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.SetItems(ctx, "old", map[string]string{KeyQuizDraft: "{}"}))
	require.NoError(t, s.SetItems(ctx, "reader", map[string]string{KeyToken: "tok"}))

	s.now = func() time.Time { return base.Add(50 * time.Minute) }
	require.NoError(t, s.SetItems(ctx, "fresh", map[string]string{KeyFlash: "hi"}))
	_, err = s.GetItems(ctx, "reader", KeyToken)
	require.NoError(t, err)

	n, err := s.PurgeStale(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, err := s.GetItems(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, items)
	items, err = s.GetItems(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	items, err = s.GetItems(ctx, "reader")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	n, err = s.PurgeStale(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(rdb, time.Hour)
	defer s.Close()
	runStorageContract(t, s)
}

func TestRedisStoreReadRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	defer s.Close()

	require.NoError(t, s.SetItems(ctx, "reader", map[string]string{KeyToken: "tok"}))
	mr.FastForward(50 * time.Minute)
	_, err := s.GetItems(ctx, "reader", KeyToken)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(browserKey("reader")))

	mr.FastForward(50 * time.Minute)
	v, ok, err := GetItem(ctx, s, "reader", KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}
