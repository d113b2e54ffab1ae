package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniconnect/backend/internal/config"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(NewRedisStore(client)), mr
}

type group struct {
	ID       string `json:"_id"`
	IsMember bool   `json:"isMember"`
}

func TestFetch_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := KeyOf(GroupList, "u1")

	calls := 0
	load := func(ctx context.Context) (interface{}, error) {
		calls++
		return []group{{ID: "g1", IsMember: true}}, nil
	}

	body, hit, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.JSONEq(t, `[{"_id":"g1","isMember":true}]`, string(body))

	stored, err := mr.Get("groups:list:u1")
	require.NoError(t, err)
	assert.JSONEq(t, string(body), stored)
	assert.Equal(t, TTLShort, mr.TTL("groups:list:u1"))

	again, hit, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, body, again)
	assert.Equal(t, 1, calls)
}

func TestFetch_ExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := KeyOf(GroupMessages, "g1")

	calls := 0
	load := func(ctx context.Context) (interface{}, error) {
		calls++
		return []string{"hello"}, nil
	}

	_, _, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)

	mr.FastForward(TTLTight - time.Second)
	_, hit, err := c.Fetch(ctx, key, load)
	require.NoError(t, err)
	assert.True(t, hit)

	mr.FastForward(2 * time.Second)
	_, hit, err = c.Fetch(ctx, key, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestFetch_LoadErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("db down")

	_, _, err := c.Fetch(context.Background(), KeyOf(GroupDetail, "g1"), func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("group:g1"))
}

func TestFetch_BackendDownFallsThroughToLoader(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	for i := 0; i < 10; i++ {
		body, hit, err := c.Fetch(context.Background(), KeyOf(Notifications, "u1"), func(ctx context.Context) (interface{}, error) {
			return []string{}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, "[]", string(body))
	}

	// invalidation against a dead backend is a silent no-op
	c.Invalidate(context.Background(), NotificationsRead, Subjects{ActorID: "u1"})
}

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *Cache
	calls := 0
	for i := 0; i < 2; i++ {
		_, hit, err := c.Fetch(context.Background(), KeyOf(GroupDetail, "g"), func(ctx context.Context) (interface{}, error) {
			calls++
			return map[string]string{"a": "b"}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, calls)
	c.Invalidate(context.Background(), GroupCreated, Subjects{GroupID: "g", ActorID: "u"})
}

func TestInvalidate_DeletesPolicyKeysOnly(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"group:g1", "group_requests:g1", "groups:list:admin", "groups:list:req", "groups:list:other"} {
		require.NoError(t, mr.Set(k, "[]"))
	}

	c.Invalidate(ctx, JoinRequestAccepted, Subjects{GroupID: "g1", ActorID: "admin", SubjectID: "req"})

	assert.False(t, mr.Exists("group:g1"))
	assert.False(t, mr.Exists("group_requests:g1"))
	assert.False(t, mr.Exists("groups:list:req"))
	// neither the approving admin's nor any other user's list is touched
	assert.True(t, mr.Exists("groups:list:admin"))
	assert.True(t, mr.Exists("groups:list:other"))
}

func TestKeysFor(t *testing.T) {
	s := Subjects{GroupID: "g", ActorID: "a", SubjectID: "s"}

	cases := map[Mutation][]string{
		GroupCreated:        {"group:g", "groups:list:a"},
		GroupJoined:         {"group:g", "groups:list:a"},
		GroupLeft:           {"group:g", "groups:list:a"},
		JoinRequested:       {"group_requests:g", "group:g"},
		JoinRequestAccepted: {"group_requests:g", "group:g", "groups:list:s"},
		JoinRequestRejected: {"group_requests:g", "group:g"},
		GroupDeleted:        {"group:g", "group_messages:g", "group_requests:g", "groups:list:a"},
		GroupMessagePosted:  {"group_messages:g"},
		NotificationCreated: {"notifications:s"},
		NotificationsRead:   {"notifications:a"},
	}
	for m, want := range cases {
		var got []string
		for _, k := range KeysFor(m, s) {
			got = append(got, k.String())
		}
		assert.Equal(t, want, got, string(m))
	}

	assert.Len(t, Policy, len(cases), "every mutation has a policy test")
	assert.Empty(t, KeysFor(NotificationCreated, Subjects{ActorID: "a"}))
}

func TestResourceTTLs(t *testing.T) {
	assert.Equal(t, 60*time.Second, GroupMessages.TTL())
	assert.Equal(t, 5*time.Minute, GroupRequests.TTL())
	assert.Equal(t, 5*time.Minute, Notifications.TTL())
	assert.Equal(t, 30*time.Minute, GroupDetail.TTL())
	assert.Equal(t, 2*time.Minute, GroupList.TTL())
	assert.Len(t, Resources(), 5)
}

func TestRedisStore_StartsWhileRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Close()

	store := NewRedisStore(NewRedisClient(config.RedisConfig{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, ok := store.Get(ctx, "group:g1")
	assert.False(t, ok)
	assert.Error(t, store.Ping(ctx))

	require.NoError(t, mr.Restart())
	require.Eventually(t, func() bool { return store.Ping(ctx) == nil }, 2*time.Second, 50*time.Millisecond)

	store.Set(ctx, "group:g1", []byte(`{}`), time.Minute)
	body, ok := store.Get(ctx, "group:g1")
	assert.True(t, ok)
	assert.Equal(t, "{}", string(body))
}
