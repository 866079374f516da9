package history

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/errors"
	"github.com/victornm/interviewprep/internal/store"
)

type Config struct {
	Store store.Store
}

// Service answers questions about a user's completed sessions.
type Service struct {
	store store.Store
}

func NewService(c Config) *Service {
	return &Service{store: c.Store}
}

type ListSessionsRequest struct {
	UserID     string
	Technology string
	Limit      int
}

// ListSessions returns the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, req ListSessionsRequest) ([]domain.InterviewSession, error) {
	return s.store.Load(ctx, store.Filter{
		UserID:     req.UserID,
		Technology: req.Technology,
		Limit:      req.Limit,
	})
}

type GetSessionRequest struct {
	UserID    string
	SessionID string
}

// GetSession returns one session of the user. Sessions of other users are
// reported as not found.
func (s *Service) GetSession(ctx context.Context, req GetSessionRequest) (*domain.InterviewSession, error) {
	ss, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if ss.UserID != req.UserID {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: %s", req.SessionID))
	}

	return ss, nil
}

type TechnologyStats struct {
	Technology   string          `json:"technology"`
	Sessions     int             `json:"sessions"`
	AverageScore decimal.Decimal `json:"averageScore"`
	BestScore    decimal.Decimal `json:"bestScore"`
}

type Stats struct {
	Sessions             int               `json:"sessions"`
	QuestionsAnswered    int               `json:"questionsAnswered"`
	QuestionsSkipped     int               `json:"questionsSkipped"`
	AverageScore         decimal.Decimal   `json:"averageScore"`
	AverageEffectiveness int               `json:"averageEffectiveness"`
	TotalMinutes         int               `json:"totalMinutes"`
	Technologies         []TechnologyStats `json:"technologies"`
}

type GetStatsRequest struct {
	UserID string
}

// GetStats aggregates every session of the user. Averages are rounded to
// one decimal; technologies are sorted by session count, then name.
func (s *Service) GetStats(ctx context.Context, req GetStatsRequest) (*Stats, error) {
	sessions, err := s.store.Load(ctx, store.Filter{UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	return Summarize(sessions), nil
}

// Summarize computes Stats over sessions.
func Summarize(sessions []domain.InterviewSession) *Stats {
	st := &Stats{
		AverageScore: decimal.Zero,
		Technologies: []TechnologyStats{},
	}

	if len(sessions) == 0 {
		return st
	}

	type acc struct {
		n    int
		sum  decimal.Decimal
		best decimal.Decimal
	}

	var (
		total         = decimal.Zero
		effectiveness int
		byTech        = make(map[string]*acc)
	)

	for _, ss := range sessions {
		score := ss.FeedbackSummary.OverallScore
		total = total.Add(score)
		effectiveness += ss.FeedbackSummary.Effectiveness
		st.TotalMinutes += ss.DurationMinutes

		for _, q := range ss.Questions {
			if q.Skipped {
				st.QuestionsSkipped++
			} else if q.Score != 0 {
				st.QuestionsAnswered++
			}
		}

		a, ok := byTech[ss.Technology]
		if !ok {
			a = &acc{sum: decimal.Zero, best: score}
			byTech[ss.Technology] = a
		}
		a.n++
		a.sum = a.sum.Add(score)
		if score.GreaterThan(a.best) {
			a.best = score
		}
	}

	n := decimal.NewFromInt(int64(len(sessions)))
	st.Sessions = len(sessions)
	st.AverageScore = total.Div(n).Round(1)
	st.AverageEffectiveness = int(decimal.NewFromInt(int64(effectiveness)).Div(n).Round(0).IntPart())

	for tech, a := range byTech {
		st.Technologies = append(st.Technologies, TechnologyStats{
			Technology:   tech,
			Sessions:     a.n,
			AverageScore: a.sum.Div(decimal.NewFromInt(int64(a.n))).Round(1),
			BestScore:    a.best,
		})
	}

	sort.Slice(st.Technologies, func(i, j int) bool {
		ti, tj := st.Technologies[i], st.Technologies[j]
		if ti.Sessions != tj.Sessions {
			return ti.Sessions > tj.Sessions
		}
		return ti.Technology < tj.Technology
	})

	return st
}
