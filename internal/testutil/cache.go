package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/uniconnect/backend/internal/cache"
)

// NewCache returns a Cache backed by an in-process miniredis server that is
// shut down when the test ends.
func NewCache(t testing.TB) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(cache.NewRedisStore(client)), mr
}
