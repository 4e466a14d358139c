package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[map[string]int64](4, time.Minute)

	_, ok, err := c.Get(ctx, "activities")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "activities", map[string]int64{"Swim": 15}))
	got, ok, err := c.Get(ctx, "activities")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]int64{"Swim": 15}, got)

	require.NoError(t, c.Delete(ctx, "activities"))
	_, ok, _ = c.Get(ctx, "activities")
	assert.False(t, ok)
}

func TestLRUExpiresEntries(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](4, time.Minute)
	c.now = clock.now

	require.NoError(t, c.Set(ctx, "a", "x"))
	require.NoError(t, c.Set(ctx, "b", "y"))

	clock.t = clock.t.Add(30 * time.Second)
	_, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)

	clock.t = clock.t.Add(31 * time.Second)
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)
	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))
	_, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", 3))

	_, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestManagerCleanNow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](8, time.Second)
	c.now = clock.now
	require.NoError(t, c.Set(ctx, "a", 1))

	m := NewManager()
	m.Register(c)
	assert.Zero(t, m.CleanNow())

	clock.t = clock.t.Add(2 * time.Second)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(time.Hour)
	m.Stop()
}

func TestConnectParsesURLAndAddr(t *testing.T) {
	c, err := Connect("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	c, err = Connect("cache:6379")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", c.Options().Addr)
	_ = c.Close()

	_, err = Connect("redis://:bad:port/x")
	assert.Error(t, err)
}

func TestRedisCacheUnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache[map[string]int64](client, "puntos:catalog:", time.Minute)
	assert.Equal(t, "puntos:catalog:activities", c.key("activities"))

	_, ok, err := c.Get(context.Background(), "activities")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(context.Background(), "activities", map[string]int64{"Swim": 15}))
}
