package practice_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/event"
	"github.com/victornm/interviewprep/internal/interviewer"
	"github.com/victornm/interviewprep/internal/llm"
	"github.com/victornm/interviewprep/internal/parser"
	"github.com/victornm/interviewprep/internal/practice"
)

const wellFormedSummary = `AREAS_FOR_IMPROVEMENT
1. Explain trade-offs
2. Use concrete examples
3. Mention complexity
EFFECTIVENESS
85
RESOURCES
1. Docs | https://docs.python.org | Reference
2. Tutorial | https://realpython.com | Guides
3. Book | https://example.com/book | Fluent Python`

func TestMachine_EndToEnd(t *testing.T) {
	var (
		ctx   = context.Background()
		store = &memoryStore{}
		eb    = event.NewBus()
		now   = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	)

	var (
		mu        sync.Mutex
		completed []domain.EventSessionCompleted
	)
	eb.Subscribe(domain.EventNameSessionCompleted, func(_ context.Context, e event.Event) error {
		mu.Lock()
		completed = append(completed, e.(domain.EventSessionCompleted))
		mu.Unlock()
		return nil
	})

	g := llm.GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		switch llm.OperationFrom(ctx) {
		case interviewer.OperationGenerate:
			return "1. Q1\n2. Q2\n3. Q3", nil
		case interviewer.OperationEvaluate:
			return "Score: 8\nFeedback: Solid.", nil
		default:
			return wellFormedSummary, nil
		}
	})

	m := practice.NewMachine(practice.Config{
		Interviewer: interviewer.NewService(interviewer.Config{Generator: g}),
		Store:       store,
		EventBus:    eb,
		UserID:      "u1",
		Now:         func() time.Time { return now },
		NewID:       func() (string, error) { return "session-1", nil },
		Duration:    func() int { return 15 },
	})

	require.NoError(t, m.SelectTechnology("python"))
	assert.Equal(t, practice.StateConfiguringSetup, m.Snapshot().State)

	require.NoError(t, m.StartInterview(ctx, domain.DifficultyBeginner, 3))

	snap := m.Snapshot()
	assert.Equal(t, practice.StateInProgress, snap.State)
	assert.True(t, snap.IsStarted)
	assert.Equal(t, 0, snap.CurrentQuestionIndex)
	require.Len(t, snap.Questions, 3)
	for i, q := range snap.Questions {
		assert.Equal(t, i+1, q.ID)
		assert.Equal(t, "python", q.Technology)
	}

	for i := 0; i < 3; i++ {
		q, err := m.SubmitAnswer(ctx, "my answer")
		require.NoError(t, err)
		assert.Equal(t, 8, q.Score)
		assert.Equal(t, "Solid.", q.Feedback)
		assert.Equal(t, i+1, m.Snapshot().CurrentQuestionIndex)
	}
	assert.True(t, m.Snapshot().AwaitingCompletion)

	s, err := m.Complete(ctx)
	require.NoError(t, err)
	eb.Stop()

	require.Len(t, store.sessions, 1)
	assert.Equal(t, *s, store.sessions[0])
	assert.Equal(t, "session-1", s.ID)
	assert.Equal(t, now, s.Date)
	assert.Equal(t, "python", s.Technology)
	assert.Equal(t, domain.DifficultyBeginner, s.Difficulty)
	assert.Equal(t, 15, s.DurationMinutes)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, parser.Accuracy(s.FeedbackSummary.OverallScore), s.FeedbackSummary.Accuracy)
	assert.Equal(t, 80, s.FeedbackSummary.Accuracy)
	assert.Equal(t, 85, s.FeedbackSummary.Effectiveness)

	snap = m.Snapshot()
	assert.Equal(t, practice.StateCompleted, snap.State)
	assert.True(t, snap.IsCompleted)
	assert.Equal(t, s, snap.Session)

	require.Len(t, completed, 1)
	assert.Equal(t, "session-1", completed[0].Session.ID)

	again, err := m.Complete(ctx)
	require.NoError(t, err, "completing twice should return the stored session")
	assert.Equal(t, s, again)
	assert.Len(t, store.sessions, 1)
}

func TestMachine_SkipAll(t *testing.T) {
	ctx := context.Background()
	fi := &fakeInterviewer{questions: []string{"Q1", "Q2", "Q3"}}
	m := newMachine(fi, &memoryStore{})

	require.NoError(t, m.SelectTechnology("go"))
	require.NoError(t, m.StartInterview(ctx, domain.DifficultyAdvanced, 3))

	for i := 0; i < 3; i++ {
		q, err := m.Skip()
		require.NoError(t, err)
		assert.True(t, q.Skipped)
	}

	snap := m.Snapshot()
	assert.Equal(t, 3, snap.CurrentQuestionIndex)
	assert.True(t, snap.AwaitingCompletion)
	for _, q := range snap.Questions {
		assert.True(t, q.Skipped)
		assert.Zero(t, q.Score)
	}

	_, err := m.Skip()
	require.ErrorIs(t, err, practice.ErrInvalidTransition, "index should never pass the end")
	assert.Equal(t, 3, m.Snapshot().CurrentQuestionIndex)
	assert.Zero(t, fi.evaluations)

	s, err := m.Complete(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(s.FeedbackSummary.OverallScore))
	assert.Equal(t, 0, s.FeedbackSummary.Accuracy)
}

func TestMachine_SubmitAnswer(t *testing.T) {
	errUpstream := stderrors.New("upstream down")

	tests := map[string]struct {
		answer      string
		evaluateErr error
		assert      func(t *testing.T, m *practice.Machine, fi *fakeInterviewer, err error)
	}{
		"empty answer should be rejected locally": {
			answer: "",
			assert: func(t *testing.T, m *practice.Machine, fi *fakeInterviewer, err error) {
				require.ErrorIs(t, err, practice.ErrEmptyAnswer)
				assert.Equal(t, 0, m.Snapshot().CurrentQuestionIndex)
				assert.Zero(t, fi.evaluations)
			},
		},

		"whitespace answer should be rejected locally": {
			answer: " \n\t ",
			assert: func(t *testing.T, m *practice.Machine, fi *fakeInterviewer, err error) {
				require.ErrorIs(t, err, practice.ErrEmptyAnswer)
				assert.Equal(t, 0, m.Snapshot().CurrentQuestionIndex)
				assert.Zero(t, fi.evaluations)
			},
		},

		"evaluation failure should leave the question untouched": {
			answer:      "answer",
			evaluateErr: errUpstream,
			assert: func(t *testing.T, m *practice.Machine, fi *fakeInterviewer, err error) {
				require.ErrorIs(t, err, errUpstream)
				snap := m.Snapshot()
				assert.Equal(t, 0, snap.CurrentQuestionIndex)
				assert.Equal(t, domain.Question{ID: 1, Text: "Q1", Technology: "go"}, snap.Questions[0])
				assert.False(t, snap.IsLoading)
			},
		},

		"successful evaluation should record answer and advance": {
			answer: "  a goroutine is a lightweight thread  ",
			assert: func(t *testing.T, m *practice.Machine, fi *fakeInterviewer, err error) {
				require.NoError(t, err)
				snap := m.Snapshot()
				assert.Equal(t, 1, snap.CurrentQuestionIndex)
				assert.Equal(t, domain.Question{
					ID:         1,
					Text:       "Q1",
					Technology: "go",
					UserAnswer: "a goroutine is a lightweight thread",
					Feedback:   "fine",
					Score:      7,
				}, snap.Questions[0])
				assert.True(t, snap.Questions[0].Terminal())
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fi := &fakeInterviewer{
				questions:   []string{"Q1", "Q2"},
				evaluation:  domain.Evaluation{Score: 7, Feedback: "fine"},
				evaluateErr: tt.evaluateErr,
			}
			m := newMachine(fi, &memoryStore{})
			require.NoError(t, m.SelectTechnology("go"))
			require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 2))

			_, err := m.SubmitAnswer(context.Background(), tt.answer)
			tt.assert(t, m, fi, err)
		})
	}
}

func TestMachine_StartInterview(t *testing.T) {
	t.Run("generation failure should stay in setup", func(t *testing.T) {
		errGen := stderrors.New("no questions")
		m := newMachine(&fakeInterviewer{generateErr: errGen}, &memoryStore{})
		require.NoError(t, m.SelectTechnology("java"))

		err := m.StartInterview(context.Background(), domain.DifficultyIntermediate, 5)
		require.ErrorIs(t, err, errGen)

		snap := m.Snapshot()
		assert.Equal(t, practice.StateConfiguringSetup, snap.State)
		assert.Empty(t, snap.Questions)
		assert.False(t, snap.IsLoading)
		assert.Equal(t, "java", snap.Technology)
	})

	t.Run("start without a technology should be rejected", func(t *testing.T) {
		m := newMachine(&fakeInterviewer{questions: []string{"Q1"}}, &memoryStore{})

		err := m.StartInterview(context.Background(), domain.DifficultyBeginner, 3)
		require.ErrorIs(t, err, practice.ErrInvalidTransition)
	})

	t.Run("invalid arguments should be rejected", func(t *testing.T) {
		m := newMachine(&fakeInterviewer{questions: []string{"Q1"}}, &memoryStore{})
		require.NoError(t, m.SelectTechnology("java"))

		require.ErrorIs(t, m.StartInterview(context.Background(), "expert", 3), practice.ErrInvalidArgument)
		require.ErrorIs(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 0), practice.ErrInvalidArgument)
		assert.Equal(t, practice.StateConfiguringSetup, m.Snapshot().State)
	})

	t.Run("quick start should use the defaults", func(t *testing.T) {
		fi := &fakeInterviewer{questions: []string{"Q1", "Q2", "Q3", "Q4", "Q5"}}
		m := newMachine(fi, &memoryStore{})

		require.NoError(t, m.QuickStart(context.Background(), "sql"))

		snap := m.Snapshot()
		assert.Equal(t, practice.StateInProgress, snap.State)
		assert.Equal(t, domain.DifficultyBeginner, snap.Difficulty)
		assert.Equal(t, 5, snap.QuestionCount)
		assert.Len(t, snap.Questions, 5)
	})
}

func TestMachine_GoBack(t *testing.T) {
	m := newMachine(&fakeInterviewer{questions: []string{"Q1", "Q2"}}, &memoryStore{})

	require.NoError(t, m.SelectTechnology("react"))
	require.NoError(t, m.GoBack())
	once := m.Snapshot()

	require.NoError(t, m.GoBack())
	assert.Equal(t, once, m.Snapshot(), "going back twice should equal going back once")
	assert.Equal(t, practice.StateSelectingTechnology, once.State)
	assert.Empty(t, once.Technology)
	assert.Zero(t, once.CurrentQuestionIndex)

	require.NoError(t, m.SelectTechnology("react"))
	require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 2))
	_, err := m.Skip()
	require.NoError(t, err)

	require.NoError(t, m.GoBack())
	snap := m.Snapshot()
	assert.Empty(t, snap.Questions)
	assert.Zero(t, snap.CurrentQuestionIndex)
	assert.False(t, snap.IsStarted)
}

func TestMachine_Complete(t *testing.T) {
	t.Run("completion before the end should be rejected", func(t *testing.T) {
		fi := &fakeInterviewer{questions: []string{"Q1", "Q2"}}
		m := newMachine(fi, &memoryStore{})
		require.NoError(t, m.SelectTechnology("go"))
		require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 2))
		_, err := m.Skip()
		require.NoError(t, err)

		_, err = m.Complete(context.Background())
		require.ErrorIs(t, err, practice.ErrInvalidTransition)
		assert.Zero(t, fi.summaries)
	})

	t.Run("summary failure should keep the boundary and allow retry", func(t *testing.T) {
		fi := &fakeInterviewer{questions: []string{"Q1"}, summarizeErr: stderrors.New("down")}
		store := &memoryStore{}
		m := newMachine(fi, store)
		require.NoError(t, m.SelectTechnology("go"))
		require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 1))
		_, err := m.Skip()
		require.NoError(t, err)

		_, err = m.Complete(context.Background())
		require.Error(t, err)
		snap := m.Snapshot()
		assert.True(t, snap.AwaitingCompletion)
		assert.False(t, snap.IsLoading)
		assert.Empty(t, store.sessions)

		fi.summarizeErr = nil
		s, err := m.Complete(context.Background())
		require.NoError(t, err)
		assert.Len(t, store.sessions, 1)
		assert.Equal(t, s.ID, store.sessions[0].ID)
	})

	t.Run("store failure should keep the boundary", func(t *testing.T) {
		fi := &fakeInterviewer{questions: []string{"Q1"}}
		m := newMachine(fi, &memoryStore{err: stderrors.New("disk full")})
		require.NoError(t, m.SelectTechnology("go"))
		require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 1))
		_, err := m.Skip()
		require.NoError(t, err)

		_, err = m.Complete(context.Background())
		require.Error(t, err)
		assert.True(t, m.Snapshot().AwaitingCompletion)
	})

	t.Run("completed machine should refuse further changes", func(t *testing.T) {
		m := newMachine(&fakeInterviewer{questions: []string{"Q1"}}, &memoryStore{})
		require.NoError(t, m.SelectTechnology("go"))
		require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 1))
		_, err := m.SubmitAnswer(context.Background(), "answer")
		require.NoError(t, err)
		_, err = m.Complete(context.Background())
		require.NoError(t, err)

		require.ErrorIs(t, m.GoBack(), practice.ErrInvalidTransition)
		require.ErrorIs(t, m.SelectTechnology("java"), practice.ErrInvalidTransition)
		_, err = m.Skip()
		require.ErrorIs(t, err, practice.ErrInvalidTransition)
	})
}

func TestMachine_SingleFlight(t *testing.T) {
	var (
		entered = make(chan struct{})
		release = make(chan struct{})
	)

	fi := &fakeInterviewer{
		questions:  []string{"Q1", "Q2"},
		evaluation: domain.Evaluation{Score: 6, Feedback: "ok"},
		onEvaluate: func() {
			close(entered)
			<-release
		},
	}
	m := newMachine(fi, &memoryStore{})
	require.NoError(t, m.SelectTechnology("go"))
	require.NoError(t, m.StartInterview(context.Background(), domain.DifficultyBeginner, 2))

	done := make(chan error, 1)
	go func() {
		_, err := m.SubmitAnswer(context.Background(), "first")
		done <- err
	}()

	<-entered
	assert.True(t, m.Snapshot().IsLoading)

	_, err := m.SubmitAnswer(context.Background(), "second")
	require.ErrorIs(t, err, practice.ErrBusy)
	_, err = m.Skip()
	require.ErrorIs(t, err, practice.ErrBusy)
	require.ErrorIs(t, m.GoBack(), practice.ErrBusy)

	close(release)
	require.NoError(t, <-done)

	snap := m.Snapshot()
	assert.Equal(t, 1, snap.CurrentQuestionIndex)
	assert.Equal(t, "first", snap.Questions[0].UserAnswer)
	assert.Equal(t, 1, fi.evaluations)
}

func newMachine(fi *fakeInterviewer, store *memoryStore) *practice.Machine {
	return practice.NewMachine(practice.Config{
		Interviewer: fi,
		Store:       store,
	})
}

type fakeInterviewer struct {
	mu sync.Mutex

	questions   []string
	generateErr error

	evaluation  domain.Evaluation
	evaluateErr error
	onEvaluate  func()
	evaluations int

	summarizeErr error
	summaries    int
}

func (f *fakeInterviewer) GenerateQuestions(_ context.Context, _ string, _ domain.Difficulty, _ int) ([]string, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.questions, nil
}

func (f *fakeInterviewer) EvaluateAnswer(_ context.Context, _, _ string) (domain.Evaluation, error) {
	if f.onEvaluate != nil {
		f.onEvaluate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations++
	return f.evaluation, f.evaluateErr
}

func (f *fakeInterviewer) SummarizeFeedback(_ context.Context, questions []domain.Question) (domain.FeedbackSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	if f.summarizeErr != nil {
		return domain.FeedbackSummary{}, f.summarizeErr
	}

	overall := interviewer.OverallScore(questions)
	return parser.ParseFeedbackSummary(wellFormedSummary, overall), nil
}

type memoryStore struct {
	mu       sync.Mutex
	err      error
	sessions []domain.InterviewSession
}

func (s *memoryStore) Append(_ context.Context, session domain.InterviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sessions = append(s.sessions, session)
	return nil
}
