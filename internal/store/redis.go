package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/errors"
)

// appendScript stores a session and its index entry together. The index is
// written first: a failing call aborts the script, so no record is left
// without an index entry.
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

type RedisConfig struct {
	Redis  redis.UniversalClient
	Prefix string
}

// Redis keeps each session as a JSON string and indexes it per user in a
// sorted set scored by the session time.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedis(c RedisConfig) *Redis {
	return &Redis{
		redis:  c.Redis,
		prefix: c.Prefix,
	}
}

func (r *Redis) Append(ctx context.Context, s domain.InterviewSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	stored, err := appendScript.Run(ctx, r.redis,
		[]string{r.sessionKey(s.ID), r.userKey(s.UserID)},
		b, s.Date.UnixMilli(), s.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	if stored == 0 {
		return errors.New(errors.CodeAlreadyExists, errors.WithMessagef("session already stored: %s", s.ID))
	}

	return nil
}

func (r *Redis) Load(ctx context.Context, f Filter) ([]domain.InterviewSession, error) {
	stop := int64(-1)
	if f.Limit > 0 && f.Technology == "" {
		stop = int64(f.Limit - 1)
	}

	ids, err := r.redis.ZRevRange(ctx, r.userKey(f.UserID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if len(ids) == 0 {
		return []domain.InterviewSession{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}

	vals, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]domain.InterviewSession, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record; skip it.
			continue
		}

		var s domain.InterviewSession
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("unmarshal session %s: %w", ids[i], err)
		}

		if f.Technology != "" && s.Technology != f.Technology {
			continue
		}
		sessions = append(sessions, s)

		if f.Limit > 0 && len(sessions) == f.Limit {
			break
		}
	}

	return sessions, nil
}

func (r *Redis) Get(ctx context.Context, id string) (*domain.InterviewSession, error) {
	raw, err := r.redis.Get(ctx, r.sessionKey(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s domain.InterviewSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	return &s, nil
}

func (r *Redis) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *Redis) userKey(user string) string {
	return fmt.Sprintf("%s:user:%s:sessions", r.prefix, user)
}
