package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SweepsDrafts(t *testing.T) {
	tests := map[string]struct {
		idle     time.Duration
		interval time.Duration
		want     bool
	}{
		"defaults should sweep": {
			idle:     DefaultConfig().Drafts.IdleTimeout,
			interval: DefaultConfig().Drafts.SweepInterval,
			want:     true,
		},

		"zero idle timeout should not sweep": {
			idle:     0,
			interval: time.Minute,
			want:     false,
		},

		"negative idle timeout should not sweep": {
			idle:     -time.Minute,
			interval: time.Minute,
			want:     false,
		},

		"zero interval should not sweep": {
			idle:     time.Hour,
			interval: 0,
			want:     false,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var c Config
			c.Drafts.IdleTimeout = tt.idle
			c.Drafts.SweepInterval = tt.interval
			assert.Equal(t, tt.want, c.sweepsDrafts())
		})
	}
}

func TestServer_CloseRedis(t *testing.T) {
	ctx := context.Background()

	s := &Server{}
	s.infra.redis.progress = makeRedis(t)
	s.infra.redis.pubsub = makeRedis(t)

	// The store client is only opened for the redis driver.
	require.Nil(t, s.infra.redis.store)

	s.closeRedis(ctx)

	assert.ErrorIs(t, s.infra.redis.progress.Ping(ctx).Err(), redis.ErrClosed)
	assert.ErrorIs(t, s.infra.redis.pubsub.Ping(ctx).Err(), redis.ErrClosed)

	t.Run("closing twice should only log", func(t *testing.T) {
		assert.NotPanics(t, func() { s.closeRedis(ctx) })
	})
}

func makeRedis(t *testing.T) redis.UniversalClient {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return rc
}
