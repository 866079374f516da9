package practice

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrDraftNotFound = stderrors.New("practice: draft not found")

type RegistryConfig struct {
	Interviewer Interviewer
	Store       Store
	EventBus    Publisher
	Now         func() time.Time
	NewID       func() (string, error)
}

// Draft is a practice run that is still held in memory.
type Draft struct {
	ID      string
	UserID  string
	Machine *Machine
}

type entry struct {
	Draft
	touched time.Time
}

// Registry holds the in-progress drafts of all users. It is created once at
// server start; drafts live until they are deleted, their user signs out,
// or they are swept after being idle.
type Registry struct {
	c RegistryConfig

	mu     sync.Mutex
	drafts map[string]*entry
}

func NewRegistry(c RegistryConfig) *Registry {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = newUUID
	}

	return &Registry{
		c:      c,
		drafts: make(map[string]*entry),
	}
}

// Create starts a new draft owned by userID. An empty userID is an anonymous user.
func (r *Registry) Create(userID string) (Draft, error) {
	id, err := r.c.NewID()
	if err != nil {
		return Draft{}, fmt.Errorf("practice: generate draft ID: %w", err)
	}

	d := Draft{
		ID:     id,
		UserID: userID,
		Machine: NewMachine(Config{
			Interviewer: r.c.Interviewer,
			Store:       r.c.Store,
			EventBus:    r.c.EventBus,
			UserID:      userID,
			Now:         r.c.Now,
		}),
	}

	r.mu.Lock()
	r.drafts[id] = &entry{Draft: d, touched: r.c.Now()}
	r.mu.Unlock()

	return d, nil
}

// Get returns the draft if it exists and belongs to userID.
func (r *Registry) Get(id, userID string) (Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.drafts[id]
	if !ok || e.UserID != userID {
		return Draft{}, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}

	e.touched = r.c.Now()
	return e.Draft, nil
}

// Delete discards a draft of userID.
func (r *Registry) Delete(id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.drafts[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}

	delete(r.drafts, id)
	return nil
}

// DeleteUser discards every draft of userID, e.g. on sign-out, and returns
// how many were removed.
func (r *Registry) DeleteUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.drafts {
		if e.UserID == userID {
			delete(r.drafts, id)
			n++
		}
	}

	return n
}

// Sweep discards drafts not used for longer than idle. Drafts with an
// operation in flight are kept.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.c.Now().Add(-idle)
	n := 0
	for id, e := range r.drafts {
		if e.touched.After(deadline) || e.Machine.Snapshot().IsLoading {
			continue
		}
		delete(r.drafts, id)
		n++
	}

	return n
}

// Len returns the number of drafts held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.drafts)
}

// Run sweeps idle drafts every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := r.Sweep(idle); n > 0 {
				slog.InfoContext(ctx, "practice: swept idle drafts", "count", n)
			}
		}
	}
}
