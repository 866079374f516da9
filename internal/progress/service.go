package progress

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/event"
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service tracks each user's best overall score per technology.
type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return s.RecordSession(ctx, e.(domain.EventSessionCompleted))
	})

	return s
}

type GetProgressRequest struct {
	UserID string
}

// GetProgress returns the user's technologies sorted by best score, highest first.
func (s *Service) GetProgress(ctx context.Context, req GetProgressRequest) ([]domain.Progress, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, s.bestKey(req.UserID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get best scores: %w", err)
	}

	attempts, err := s.redis.HGetAll(ctx, s.attemptsKey(req.UserID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get attempts: %w", err)
	}

	out := make([]domain.Progress, 0, len(res))
	for _, z := range res {
		tech := z.Member.(string)
		n, _ := strconv.ParseInt(attempts[tech], 10, 64)
		out = append(out, domain.Progress{
			Technology: tech,
			BestScore:  z.Score,
			Attempts:   n,
		})
	}

	return out, nil
}

// RecordSession counts the attempt and keeps the best score of its technology.
// Anonymous sessions are ignored.
func (s *Service) RecordSession(ctx context.Context, e domain.EventSessionCompleted) error {
	ss := e.Session
	if ss.UserID == "" {
		return nil
	}

	score := ss.FeedbackSummary.OverallScore.InexactFloat64()

	attempts, err := s.redis.HIncrBy(ctx, s.attemptsKey(ss.UserID), ss.Technology, 1).Result()
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}

	// GT only ever raises the stored score, so concurrent sessions cannot lower it.
	if err := s.redis.ZAddGT(ctx, s.bestKey(ss.UserID), redis.Z{
		Score:  score,
		Member: ss.Technology,
	}).Err(); err != nil {
		return fmt.Errorf("update best score: %w", err)
	}

	best, err := s.redis.ZScore(ctx, s.bestKey(ss.UserID), ss.Technology).Result()
	if err != nil {
		return fmt.Errorf("get best score: %w", err)
	}

	s.eb.Publish(ctx, domain.EventProgressUpdated{
		UserID: ss.UserID,
		Progress: domain.Progress{
			Technology: ss.Technology,
			BestScore:  best,
			Attempts:   attempts,
		},
	})

	return nil
}

func (s *Service) bestKey(user string) string {
	return fmt.Sprintf("%s:%s:best", s.prefix, user)
}

func (s *Service) attemptsKey(user string) string {
	return fmt.Sprintf("%s:%s:attempts", s.prefix, user)
}
