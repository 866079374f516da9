// Package store persists completed interview sessions.
package store

import (
	"context"

	"github.com/victornm/interviewprep/internal/domain"
)

// Filter narrows Load. An empty UserID matches anonymous sessions only.
type Filter struct {
	UserID string
	// Technology, when set, keeps only sessions of that technology.
	Technology string
	// Limit caps the number of sessions returned, newest first. Zero means no limit.
	Limit int
}

// Store is an append-only collection of sessions. Load returns sessions
// ordered by date, newest first.
type Store interface {
	Append(ctx context.Context, s domain.InterviewSession) error
	Load(ctx context.Context, f Filter) ([]domain.InterviewSession, error)
	Get(ctx context.Context, id string) (*domain.InterviewSession, error)
}
