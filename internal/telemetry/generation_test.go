package telemetry

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/interviewprep/internal/llm"
)

func TestMonitorGenerator(t *testing.T) {
	fail := true
	g := MonitorGenerator(llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if fail {
			return "", stderrors.New("upstream down")
		}
		return "ok: " + prompt, nil
	}))

	ctx := llm.WithOperation(context.Background(), "monitor_test")

	_, err := g.Generate(ctx, "p")
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(generationErrors.WithLabelValues("monitor_test")))

	fail = false
	out, err := g.Generate(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "ok: p", out)
	assert.Equal(t, float64(1), testutil.ToFloat64(generationErrors.WithLabelValues("monitor_test")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(generationDuration), 1)
}

func TestMonitorRedis(t *testing.T) {
	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})

	require.NoError(t, MonitorRedis("test", rc))

	ctx := context.Background()
	require.NoError(t, rc.Set(ctx, "k", "v", 0).Err())
	assert.ErrorIs(t, rc.Get(ctx, "missing").Err(), redis.Nil)
}
