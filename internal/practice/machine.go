package practice

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/event"
)

const (
	DefaultDifficulty    = domain.DifficultyBeginner
	DefaultQuestionCount = 5
)

type State string

const (
	StateSelectingTechnology State = "selecting_technology"
	StateConfiguringSetup    State = "configuring_setup"
	StateInProgress          State = "in_progress"
	StateCompleted           State = "completed"
)

var (
	ErrEmptyAnswer       = stderrors.New("practice: answer is empty")
	ErrInvalidArgument   = stderrors.New("practice: invalid argument")
	ErrInvalidTransition = stderrors.New("practice: operation not allowed in current state")
	ErrBusy              = stderrors.New("practice: another operation is in progress")
	// ErrQuestionTerminal is returned on an attempt to change a question that
	// was already answered or skipped. Well-formed callers never see it.
	ErrQuestionTerminal = stderrors.New("practice: question already answered or skipped")
)

// Interviewer talks to the generation service on behalf of a session.
type Interviewer interface {
	GenerateQuestions(ctx context.Context, technology string, difficulty domain.Difficulty, count int) ([]string, error)
	EvaluateAnswer(ctx context.Context, question, answer string) (domain.Evaluation, error)
	SummarizeFeedback(ctx context.Context, questions []domain.Question) (domain.FeedbackSummary, error)
}

// Store receives completed sessions.
type Store interface {
	Append(ctx context.Context, s domain.InterviewSession) error
}

type Publisher interface {
	Publish(ctx context.Context, e event.Event)
}

type Config struct {
	Interviewer Interviewer
	Store       Store
	// EventBus is optional. When set, session.completed is published on it.
	EventBus Publisher
	UserID   string

	Now      func() time.Time
	NewID    func() (string, error)
	Duration func() int
}

// Machine drives one practice run from technology selection to the final
// feedback. Only one network-bound operation may be in flight at a time.
type Machine struct {
	interviewer Interviewer
	store       Store
	eb          Publisher
	userID      string
	now         func() time.Time
	newID       func() (string, error)
	duration    func() int

	mu            sync.Mutex
	state         State
	technology    string
	difficulty    domain.Difficulty
	questionCount int
	index         int
	questions     []domain.Question
	loading       bool
	session       *domain.InterviewSession
}

func NewMachine(c Config) *Machine {
	m := &Machine{
		interviewer:   c.Interviewer,
		store:         c.Store,
		eb:            c.EventBus,
		userID:        c.UserID,
		now:           c.Now,
		newID:         c.NewID,
		duration:      c.Duration,
		state:         StateSelectingTechnology,
		difficulty:    DefaultDifficulty,
		questionCount: DefaultQuestionCount,
	}

	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = newUUID
	}
	if m.duration == nil {
		m.duration = randomDuration
	}

	return m
}

// Snapshot is a copy of the machine's state.
type Snapshot struct {
	State                State                    `json:"state"`
	Technology           string                   `json:"technology"`
	Difficulty           domain.Difficulty        `json:"difficulty"`
	QuestionCount        int                      `json:"questionCount"`
	CurrentQuestionIndex int                      `json:"currentQuestionIndex"`
	Questions            []domain.Question        `json:"questions"`
	IsLoading            bool                     `json:"isLoading"`
	IsStarted            bool                     `json:"isStarted"`
	IsCompleted          bool                     `json:"isCompleted"`
	AwaitingCompletion   bool                     `json:"awaitingCompletion"`
	Session              *domain.InterviewSession `json:"session,omitempty"`
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		State:                m.state,
		Technology:           m.technology,
		Difficulty:           m.difficulty,
		QuestionCount:        m.questionCount,
		CurrentQuestionIndex: m.index,
		Questions:            slices.Clone(m.questions),
		IsLoading:            m.loading,
		IsStarted:            m.state == StateInProgress || m.state == StateCompleted,
		IsCompleted:          m.state == StateCompleted,
		AwaitingCompletion:   m.atBoundary(),
		Session:              m.session,
	}
}

// SelectTechnology records the technology and moves to the setup step.
func (m *Machine) SelectTechnology(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: technology is required", ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading {
		return ErrBusy
	}
	if m.state != StateSelectingTechnology && m.state != StateConfiguringSetup {
		return fmt.Errorf("%w: select technology in %s", ErrInvalidTransition, m.state)
	}

	m.technology = id
	m.state = StateConfiguringSetup
	return nil
}

// StartInterview generates the questions and enters the question loop. On
// failure the machine stays in the setup step.
func (m *Machine) StartInterview(ctx context.Context, difficulty domain.Difficulty, count int) error {
	if !difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidArgument, difficulty)
	}
	if count <= 0 {
		return fmt.Errorf("%w: question count must be positive, got %d", ErrInvalidArgument, count)
	}

	m.mu.Lock()
	if err := m.acquire(StateConfiguringSetup); err != nil {
		m.mu.Unlock()
		return err
	}
	technology := m.technology
	m.mu.Unlock()

	texts, err := m.interviewer.GenerateQuestions(ctx, technology, difficulty, count)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	if err != nil {
		return err
	}

	questions := make([]domain.Question, 0, len(texts))
	for i, text := range texts {
		questions = append(questions, domain.Question{
			ID:         i + 1,
			Text:       text,
			Technology: technology,
		})
	}

	m.questions = questions
	m.difficulty = difficulty
	m.questionCount = count
	m.index = 0
	m.state = StateInProgress
	return nil
}

// QuickStart selects a technology and starts right away with the default
// difficulty and question count.
func (m *Machine) QuickStart(ctx context.Context, technology string) error {
	if err := m.SelectTechnology(technology); err != nil {
		return err
	}
	return m.StartInterview(ctx, DefaultDifficulty, DefaultQuestionCount)
}

// SubmitAnswer evaluates the answer to the current question and advances.
// Blank answers are rejected without contacting the generation service. If
// the evaluation fails, nothing changes and the caller may retry.
func (m *Machine) SubmitAnswer(ctx context.Context, answer string) (domain.Question, error) {
	m.mu.Lock()
	q, err := m.current()
	if err == nil && strings.TrimSpace(answer) == "" {
		err = ErrEmptyAnswer
	}
	if err == nil {
		err = m.acquire(StateInProgress)
	}
	if err != nil {
		m.mu.Unlock()
		return domain.Question{}, err
	}
	idx := m.index
	m.mu.Unlock()

	answer = strings.TrimSpace(answer)
	ev, err := m.interviewer.EvaluateAnswer(ctx, q.Text, answer)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	if err != nil {
		return domain.Question{}, err
	}

	q = m.questions[idx]
	q.UserAnswer = answer
	q.Feedback = ev.Feedback
	q.Score = ev.Score
	m.questions[idx] = q
	m.index = idx + 1

	return q, nil
}

// Skip marks the current question as skipped and advances.
func (m *Machine) Skip() (domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.current()
	if err != nil {
		return domain.Question{}, err
	}
	if m.loading {
		return domain.Question{}, ErrBusy
	}

	q.Skipped = true
	m.questions[m.index] = q
	m.index++

	return q, nil
}

// GoBack returns to technology selection, discarding any questions. Calling
// it again is a no-op.
func (m *Machine) GoBack() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading {
		return ErrBusy
	}
	if m.state == StateCompleted {
		return fmt.Errorf("%w: go back in %s", ErrInvalidTransition, m.state)
	}

	m.technology = ""
	m.questions = nil
	m.index = 0
	m.state = StateSelectingTechnology
	return nil
}

// Complete summarizes the answered questions and stores the session. It is
// only allowed once every question was answered or skipped. On failure the
// machine stays at that point and the caller may retry. Completing an
// already completed machine returns the stored session.
func (m *Machine) Complete(ctx context.Context) (*domain.InterviewSession, error) {
	m.mu.Lock()
	if m.state == StateCompleted {
		s := m.session
		m.mu.Unlock()
		return s, nil
	}
	if !m.atBoundary() {
		err := fmt.Errorf("%w: %d of %d questions done", ErrInvalidTransition, m.index, len(m.questions))
		m.mu.Unlock()
		return nil, err
	}
	if err := m.acquire(StateInProgress); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	var (
		questions  = slices.Clone(m.questions)
		technology = m.technology
		difficulty = m.difficulty
	)
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}

	summary, err := m.interviewer.SummarizeFeedback(ctx, questions)
	if err != nil {
		release()
		return nil, err
	}

	id, err := m.newID()
	if err != nil {
		release()
		return nil, fmt.Errorf("practice: generate session ID: %w", err)
	}

	s := domain.InterviewSession{
		ID:              id,
		Date:            m.now(),
		Technology:      technology,
		Difficulty:      difficulty,
		DurationMinutes: m.duration(),
		Questions:       questions,
		FeedbackSummary: summary,
		UserID:          m.userID,
	}

	if err := m.store.Append(ctx, s); err != nil {
		release()
		return nil, fmt.Errorf("practice: store session: %w", err)
	}

	m.mu.Lock()
	m.session = &s
	m.state = StateCompleted
	m.loading = false
	m.mu.Unlock()

	slog.InfoContext(ctx, "practice: session completed",
		"session_id", s.ID,
		"technology", s.Technology,
		"overall_score", s.FeedbackSummary.OverallScore.String(),
	)

	if m.eb != nil {
		m.eb.Publish(ctx, domain.EventSessionCompleted{Session: s})
	}

	return &s, nil
}

// acquire marks the machine as loading. It must be called with m.mu held.
func (m *Machine) acquire(want State) error {
	if m.loading {
		return ErrBusy
	}
	if m.state != want {
		return fmt.Errorf("%w: expected %s, in %s", ErrInvalidTransition, want, m.state)
	}

	m.loading = true
	return nil
}

// current returns the question to act on. It must be called with m.mu held.
func (m *Machine) current() (domain.Question, error) {
	if m.state != StateInProgress || m.index >= len(m.questions) {
		return domain.Question{}, fmt.Errorf("%w: no current question in %s", ErrInvalidTransition, m.state)
	}

	q := m.questions[m.index]
	if q.Terminal() {
		return domain.Question{}, fmt.Errorf("%w: question %d", ErrQuestionTerminal, q.ID)
	}

	return q, nil
}

func (m *Machine) atBoundary() bool {
	return m.state == StateInProgress && m.index == len(m.questions)
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// randomDuration is a placeholder for the time spent on a session, in minutes.
func randomDuration() int {
	return rand.IntN(20) + 10
}
