package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Difficulty is the proficiency level an interview is generated for.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Difficulties lists the known levels from easiest to hardest.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Question is one prompt of a practice session and its eventual outcome.
type Question struct {
	// ID is the 1-based position of the question within its session.
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Technology string `json:"technology"`
	UserAnswer string `json:"userAnswer,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
	// Score is in [1,10] once the question is answered, 0 otherwise.
	Score   int  `json:"score,omitempty"`
	Skipped bool `json:"skipped,omitempty"`
}

// Terminal reports whether the question was skipped or answered and scored.
func (q Question) Terminal() bool {
	return q.Skipped || (q.UserAnswer != "" && q.Score != 0)
}

// Evaluation is the score and feedback given to a single answer.
type Evaluation struct {
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
}

// Resource is a learning resource recommended at the end of a session.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// FeedbackSummary is the aggregate assessment of a completed session.
type FeedbackSummary struct {
	// OverallScore is the mean answer score, rounded to one decimal.
	OverallScore         decimal.Decimal `json:"overallScore"`
	ImprovementAreas     []string        `json:"improvementAreas"`
	Effectiveness        int             `json:"effectiveness"`
	Accuracy             int             `json:"accuracy"`
	RecommendedResources []Resource      `json:"recommendedResources"`
}

// InterviewSession is a completed practice run. It is never modified after creation.
type InterviewSession struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	Technology      string          `json:"technology"`
	Difficulty      Difficulty      `json:"difficulty"`
	DurationMinutes int             `json:"durationMinutes"`
	Questions       []Question      `json:"questions"`
	FeedbackSummary FeedbackSummary `json:"feedbackSummary"`
	UserID          string          `json:"userId,omitempty"`
}

// Progress is a user's best result for one technology.
type Progress struct {
	Technology string
	BestScore  float64
	Attempts   int64
}
