package token_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/go-auth-client/token"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGetClear(t *testing.T) {
	cache := token.NewCache()

	_, ok := cache.Get()
	require.False(t, ok, "new cache holds nothing")

	cache.Set("tok-1")
	got, ok := cache.Get()
	require.True(t, ok)
	require.Equal(t, "tok-1", got)

	cache.Set("tok-2")
	got, ok = cache.Get()
	require.True(t, ok)
	require.Equal(t, "tok-2", got)

	cache.Clear()
	_, ok = cache.Get()
	require.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := token.NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cache.Set("tok")
		}()
		go func() {
			defer wg.Done()
			if got, ok := cache.Get(); ok {
				require.Equal(t, "tok", got)
			}
		}()
	}
	wg.Wait()

	got, ok := cache.Get()
	require.True(t, ok)
	require.Equal(t, "tok", got)
}
