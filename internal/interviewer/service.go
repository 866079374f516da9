package interviewer

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/llm"
	"github.com/victornm/interviewprep/internal/parser"
)

const (
	OperationGenerate  = "generate_questions"
	OperationEvaluate  = "evaluate_answer"
	OperationSummarize = "summarize_feedback"
)

var (
	// ErrGeneration means a question batch could not be produced.
	ErrGeneration = stderrors.New("interviewer: question generation failed")
	// ErrEvaluation means the generation service failed while scoring an answer.
	ErrEvaluation = stderrors.New("interviewer: answer evaluation failed")
	// ErrSummary means the generation service failed while summarizing a session.
	ErrSummary = stderrors.New("interviewer: feedback summary failed")
)

type Config struct {
	Generator llm.Generator
}

// Service shapes requests to the generation service and parses its replies.
type Service struct {
	g llm.Generator
}

func NewService(c Config) *Service {
	return &Service{g: c.Generator}
}

// GenerateQuestions asks for count questions of the given difficulty. An
// empty parse result is an error since a session cannot start without questions.
func (s *Service) GenerateQuestions(ctx context.Context, technology string, difficulty domain.Difficulty, count int) ([]string, error) {
	if technology == "" {
		return nil, fmt.Errorf("%w: technology is required", ErrGeneration)
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrGeneration, difficulty)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d", ErrGeneration, count)
	}

	ctx = llm.WithOperation(ctx, OperationGenerate)
	raw, err := s.g.Generate(ctx, questionsPrompt(technology, difficulty, count))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	questions, err := parser.ParseQuestionList(raw, count)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if len(questions) != count {
		slog.WarnContext(ctx, "interviewer: question count mismatch",
			"technology", technology,
			"want", count,
			"got", len(questions),
		)
	}

	return questions, nil
}

// EvaluateAnswer scores an answer. Malformed replies fall back to parser defaults.
func (s *Service) EvaluateAnswer(ctx context.Context, question, answer string) (domain.Evaluation, error) {
	ctx = llm.WithOperation(ctx, OperationEvaluate)
	raw, err := s.g.Generate(ctx, evaluationPrompt(question, answer))
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	return parser.ParseEvaluation(raw), nil
}

// SummarizeFeedback builds the summary of a finished question set, skipped
// questions included.
func (s *Service) SummarizeFeedback(ctx context.Context, questions []domain.Question) (domain.FeedbackSummary, error) {
	overall := OverallScore(questions)

	ctx = llm.WithOperation(ctx, OperationSummarize)
	raw, err := s.g.Generate(ctx, summaryPrompt(questions))
	if err != nil {
		return domain.FeedbackSummary{}, fmt.Errorf("%w: %w", ErrSummary, err)
	}

	return parser.ParseFeedbackSummary(raw, overall), nil
}

// OverallScore is the mean score of the answered questions rounded to one
// decimal. It is zero when every question was skipped.
func OverallScore(questions []domain.Question) decimal.Decimal {
	var (
		sum   = decimal.Zero
		count int64
	)

	for _, q := range questions {
		if q.Skipped || q.Score == 0 {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(int64(q.Score)))
		count++
	}

	if count == 0 {
		return decimal.Zero
	}

	return sum.Div(decimal.NewFromInt(count)).Round(1)
}
