// Package parser turns free-form generated text into structured records.
//
// Generated text is unreliable input. Apart from an empty question list,
// nothing here fails: every malformed field falls back to a fixed default
// so that an interview can always move forward.
package parser

import (
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/victornm/interviewprep/internal/domain"
)

const (
	DefaultScore         = 5
	MinScore             = 1
	MaxScore             = 10
	DefaultFeedback      = "No specific feedback provided."
	DefaultEffectiveness = 70

	sectionLines = 3
)

const (
	SectionImprovementAreas = "AREAS_FOR_IMPROVEMENT"
	SectionEffectiveness    = "EFFECTIVENESS"
	SectionResources        = "RESOURCES"
)

var ErrNoQuestionsFound = stderrors.New("parser: no questions found")

var (
	numberedLine  = regexp.MustCompile(`^\d+\.\s*(.+)`)
	enumeration   = regexp.MustCompile(`^\d+\.\s*`)
	scoreToken    = regexp.MustCompile(`(?i)score:\s*(\d+)`)
	feedbackToken = regexp.MustCompile(`(?is)feedback:\s*(.+)`)
	leadingNumber = regexp.MustCompile(`^\d+`)
)

// ParseQuestionList returns the content of every numbered line ("1. ...") in
// the order it appears. When expected is positive, at most expected entries
// are returned; fewer is not an error.
func ParseQuestionList(raw string, expected int) ([]string, error) {
	var questions []string
	for _, line := range lines(raw) {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		q := strings.TrimSpace(m[1])
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestionsFound
	}

	if expected > 0 && len(questions) > expected {
		questions = questions[:expected]
	}

	return questions, nil
}

// ParseEvaluation extracts "Score: n" and "Feedback: ..." from an evaluation.
func ParseEvaluation(raw string) domain.Evaluation {
	e := domain.Evaluation{
		Score:    DefaultScore,
		Feedback: DefaultFeedback,
	}

	if m := scoreToken.FindStringSubmatch(raw); m != nil {
		e.Score = clampScore(m[1])
	}

	if m := feedbackToken.FindStringSubmatch(raw); m != nil {
		if f := strings.TrimSpace(m[1]); f != "" {
			e.Feedback = f
		}
	}

	return e
}

func clampScore(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Only digits reach here, so the value overflowed.
		return MaxScore
	}

	return min(max(n, MinScore), MaxScore)
}

// ParseFeedbackSummary reads the three labeled sections of a summary. The
// overall score is computed by the caller; accuracy is always derived from it.
func ParseFeedbackSummary(raw string, overall decimal.Decimal) domain.FeedbackSummary {
	ls := lines(raw)

	s := domain.FeedbackSummary{
		OverallScore:         overall,
		ImprovementAreas:     []string{},
		Effectiveness:        DefaultEffectiveness,
		Accuracy:             Accuracy(overall),
		RecommendedResources: []domain.Resource{},
	}

	for _, line := range section(ls, SectionImprovementAreas, sectionLines) {
		if area := strings.TrimSpace(enumeration.ReplaceAllString(line, "")); area != "" {
			s.ImprovementAreas = append(s.ImprovementAreas, area)
		}
	}

	if eff := section(ls, SectionEffectiveness, 1); len(eff) == 1 {
		if d := leadingNumber.FindString(strings.TrimSpace(eff[0])); d != "" {
			if n, err := strconv.Atoi(d); err == nil && n > 0 {
				s.Effectiveness = min(n, 100)
			}
		}
	}

	for _, line := range section(ls, SectionResources, sectionLines) {
		if r, ok := parseResource(line); ok {
			s.RecommendedResources = append(s.RecommendedResources, r)
		}
	}

	return s
}

// Accuracy is the overall score expressed as a percentage.
func Accuracy(overall decimal.Decimal) int {
	return int(overall.Mul(decimal.NewFromInt(10)).Round(0).IntPart())
}

// parseResource reads "title | url | description". Lines without all three
// fields are dropped.
func parseResource(line string) (domain.Resource, bool) {
	line = strings.TrimSpace(enumeration.ReplaceAllString(strings.TrimSpace(line), ""))
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return domain.Resource{}, false
	}

	r := domain.Resource{
		Title:       strings.TrimSpace(parts[0]),
		URL:         strings.TrimSpace(parts[1]),
		Description: strings.TrimSpace(parts[2]),
	}
	if r.Title == "" {
		return domain.Resource{}, false
	}

	return r, true
}

// section returns up to n lines following the header line. Blank lines count
// towards n, the same way a fixed-width capture would.
func section(ls []string, header string, n int) []string {
	for i, line := range ls {
		if !isHeader(line, header) {
			continue
		}

		end := min(i+1+n, len(ls))
		var out []string
		for _, l := range ls[i+1 : end] {
			if strings.TrimSpace(l) != "" {
				out = append(out, l)
			}
		}
		return out
	}

	return nil
}

func isHeader(line, header string) bool {
	l := strings.Trim(strings.TrimSpace(line), "*#: ")
	return strings.EqualFold(l, header)
}

func lines(raw string) []string {
	ls := strings.Split(raw, "\n")
	for i, l := range ls {
		ls[i] = strings.TrimSuffix(l, "\r")
	}
	return ls
}
