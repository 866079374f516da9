// Package llm is the text-in/text-out boundary to the generation service.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to a Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type operationKey struct{}

// WithOperation labels the generation calls made with ctx, e.g. for metrics.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFrom returns the operation label of ctx, or "unknown".
func OperationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "unknown"
}

type RetryConfig struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// Backoff is the wait before the second attempt; it doubles afterwards.
	Backoff time.Duration
}

// WithRetry retries failed calls of g with exponential backoff. Attempts
// below 2 disable retrying.
func WithRetry(g Generator, c RetryConfig) Generator {
	if c.Attempts < 2 {
		return g
	}

	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		var (
			err  error
			wait = c.Backoff
		)

		for i := 0; i < c.Attempts; i++ {
			if i > 0 {
				t := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					t.Stop()
					return "", fmt.Errorf("retry: %w (last error: %v)", ctx.Err(), err)
				case <-t.C:
				}
				wait *= 2
			}

			var text string
			text, err = g.Generate(ctx, prompt)
			if err == nil {
				return text, nil
			}
		}

		return "", fmt.Errorf("retry: %d attempts: %w", c.Attempts, err)
	})
}
