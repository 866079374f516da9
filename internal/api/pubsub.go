package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/interviewprep/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	SessionCompleted struct {
		SessionID     string `json:"sessionId"`
		Technology    string `json:"technology"`
		Difficulty    string `json:"difficulty"`
		OverallScore  string `json:"overallScore"`
		Accuracy      int    `json:"accuracy"`
		Effectiveness int    `json:"effectiveness"`
	}

	ProgressUpdated struct {
		Technology string  `json:"technology"`
		BestScore  float64 `json:"bestScore"`
		Attempts   int64   `json:"attempts"`
	}
)

// PublishSessionCompleted notifies the session's owner and the activity feed.
// The feed never carries the user id.
func (a *API) PublishSessionCompleted(ctx context.Context, e domain.EventSessionCompleted) error {
	s := e.Session

	data := SessionCompleted{
		SessionID:     s.ID,
		Technology:    s.Technology,
		Difficulty:    string(s.Difficulty),
		OverallScore:  s.FeedbackSummary.OverallScore.StringFixed(1),
		Accuracy:      s.FeedbackSummary.Accuracy,
		Effectiveness: s.FeedbackSummary.Effectiveness,
	}

	var eg errgroup.Group

	if s.UserID != "" {
		eg.Go(func() error {
			return a.publishNotification(ctx, a.userChannel(s.UserID), e.Name(), data)
		})
	}

	eg.Go(func() error {
		return a.publishNotification(ctx, a.feedChannel(), e.Name(), data)
	})

	return eg.Wait()
}

func (a *API) PublishProgressUpdated(ctx context.Context, e domain.EventProgressUpdated) error {
	data := ProgressUpdated{
		Technology: e.Progress.Technology,
		BestScore:  e.Progress.BestScore,
		Attempts:   e.Progress.Attempts,
	}

	return a.publishNotification(ctx, a.userChannel(e.UserID), e.Name(), data)
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}

func (a *API) userChannel(user string) string {
	return fmt.Sprintf("%s:user:%s", a.prefix, user)
}

func (a *API) feedChannel() string {
	return fmt.Sprintf("%s:sessions", a.prefix)
}
