package cache

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniconnect/backend/internal/metrics"
)

func TestFetch_RecordsHitsAndMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	m := metrics.Get()
	label := string(GroupDetail)

	hits := testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues(label))
	misses := testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues(label))

	load := func(ctx context.Context) (interface{}, error) { return group{ID: "g-metrics"}, nil }
	for i := 0; i < 3; i++ {
		_, _, err := c.Fetch(ctx, KeyOf(GroupDetail, "g-metrics"), load)
		require.NoError(t, err)
	}

	assert.Equal(t, misses+1, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues(label)))
	assert.Equal(t, hits+2, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues(label)))
}

func TestInvalidate_CountsDeletedKeys(t *testing.T) {
	c, _ := newTestCache(t)
	counter := metrics.Get().CacheInvalidationsTotal.WithLabelValues(string(GroupJoined))
	before := testutil.ToFloat64(counter)

	c.Invalidate(context.Background(), GroupJoined, Subjects{GroupID: "g", ActorID: "a"})

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
