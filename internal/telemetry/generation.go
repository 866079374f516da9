package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/victornm/interviewprep/internal/llm"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interviewprep",
		Subsystem: "generation",
		Name:      "duration_seconds",
		Help:      "Latency of calls to the text generation service.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"operation"})

	generationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interviewprep",
		Subsystem: "generation",
		Name:      "errors_total",
		Help:      "Failed calls to the text generation service.",
	}, []string{"operation"})
)

// MonitorGenerator records latency and failures of g, labelled with the
// operation carried by the context.
func MonitorGenerator(g llm.Generator) llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		op := llm.OperationFrom(ctx)
		start := time.Now()

		out, err := g.Generate(ctx, prompt)

		elapsed := time.Since(start)
		generationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
		if err != nil {
			generationErrors.WithLabelValues(op).Inc()
			slog.WarnContext(ctx, "generation: call failed", "operation", op, "latency", elapsed, "error", err)
			return "", err
		}

		slog.DebugContext(ctx, "generation: call finished", "operation", op, "latency", elapsed, "bytes", len(out))
		return out, nil
	})
}
