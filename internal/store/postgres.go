package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	session_id       UUID PRIMARY KEY,
	user_id          TEXT NOT NULL DEFAULT '',
	create_time      TIMESTAMPTZ NOT NULL,
	technology       TEXT NOT NULL,
	difficulty       TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	questions        JSONB NOT NULL,
	feedback_summary JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS interview_sessions_user_time ON interview_sessions (user_id, create_time DESC);`

type PostgresConfig struct {
	DB *pgxpool.Pool
}

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(c PostgresConfig) *Postgres {
	return &Postgres{db: c.DB}
}

// Migrate creates the sessions table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Append(ctx context.Context, s domain.InterviewSession) error {
	const stmt = `
INSERT INTO interview_sessions
	(session_id, user_id, create_time, technology, difficulty, duration_minutes, questions, feedback_summary)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := p.db.Exec(ctx, stmt,
		s.ID, s.UserID, s.Date, s.Technology, string(s.Difficulty), s.DurationMinutes,
		s.Questions, s.FeedbackSummary,
	)

	var pgErr *pgconn.PgError
	const codeUniqueViolation = "23505"
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("session already stored: %s", s.ID),
			errors.WithCause(err))
	}

	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (p *Postgres) Load(ctx context.Context, f Filter) ([]domain.InterviewSession, error) {
	const stmt = `
SELECT session_id::text, user_id, create_time, technology, difficulty, duration_minutes, questions, feedback_summary
FROM interview_sessions
WHERE user_id = $1 AND ($2::text = '' OR technology = $2::text)
ORDER BY create_time DESC
LIMIT NULLIF($3::int, 0);`

	rows, err := p.db.Query(ctx, stmt, f.UserID, f.Technology, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	sessions, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("collect sessions: %w", err)
	}

	return sessions, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*domain.InterviewSession, error) {
	const stmt = `
SELECT session_id::text, user_id, create_time, technology, difficulty, duration_minutes, questions, feedback_summary
FROM interview_sessions
WHERE session_id::text = $1;`

	rows, err := p.db.Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("collect session: %w", err)
	}

	return &s, nil
}

func scanSession(r pgx.CollectableRow) (domain.InterviewSession, error) {
	var (
		s          domain.InterviewSession
		difficulty string
	)

	err := r.Scan(&s.ID, &s.UserID, &s.Date, &s.Technology, &difficulty, &s.DurationMinutes, &s.Questions, &s.FeedbackSummary)
	if err != nil {
		return domain.InterviewSession{}, err
	}
	s.Difficulty = domain.Difficulty(difficulty)

	return s, nil
}
