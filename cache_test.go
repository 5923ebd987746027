package lightdao

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey{Table: "user", Method: "UserDao.findById(int)", Digest: "ab12"}
	assert.Equal(t, "user:UserDao.findById(int):ab12", k.String())
	assert.Equal(t, "user:", TablePrefix("user"))
	assert.Contains(t, k.String(), TablePrefix(k.Table))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "user:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "user:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "order:a", []byte("3"), 0))
	assert.Equal(t, 3, c.Len())

	v, err = c.Get(ctx, "user:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Delete(ctx, "user:a"))
	v, _ = c.Get(ctx, "user:a")
	assert.Nil(t, v)

	require.NoError(t, c.DeletePrefix(ctx, TablePrefix("user")))
	assert.Equal(t, 1, c.Len())
	v, _ = c.Get(ctx, "order:a")
	assert.Equal(t, []byte("3"), v)

	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), v)

	now = now.Add(59 * time.Second)
	v, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), v)

	now = now.Add(time.Second)
	v, _ = c.Get(ctx, "k")
	assert.Nil(t, v)
	assert.Zero(t, c.Len(), "expired entries are dropped on read")
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := CacheKey{Table: "user", Method: "m", Digest: string(rune('a' + i))}.String()
			assert.NoError(t, c.Set(ctx, key, []byte{byte(i)}, 0))
			_, err := c.Get(ctx, key)
			assert.NoError(t, err)
			assert.NoError(t, c.DeletePrefix(ctx, "order:"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, c.Len())
}
