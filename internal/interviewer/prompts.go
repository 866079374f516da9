package interviewer

import (
	"fmt"
	"strings"

	"github.com/victornm/interviewprep/internal/domain"
	"github.com/victornm/interviewprep/internal/parser"
)

var difficultyHints = map[domain.Difficulty]string{
	domain.DifficultyBeginner:     "fundamental concepts and basic usage",
	domain.DifficultyIntermediate: "advanced concepts and practical scenarios",
	domain.DifficultyAdvanced:     "expert-level problems and system design",
}

func questionsPrompt(technology string, difficulty domain.Difficulty, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate exactly %d %s level technical interview questions for %s.\n", count, difficulty, technology)
	fmt.Fprintf(&b, "Focus on %s.\n", difficultyHints[difficulty])
	fmt.Fprintf(&b, "Format each question as a numbered list starting with 1. and ending with %d.\n", count)
	b.WriteString("Write one question per line, with no introduction and no closing remarks.\n")
	fmt.Fprintf(&b, "Make questions clear, specific, and appropriate for %s level developers.", difficulty)

	return b.String()
}

func evaluationPrompt(question, answer string) string {
	var b strings.Builder

	b.WriteString("You are an expert technical interviewer. Evaluate this answer for the technical interview question.\n")
	fmt.Fprintf(&b, "Provide constructive feedback and a score from %d-%d.\n\n", parser.MinScore, parser.MaxScore)
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Answer: %s\n\n", answer)
	b.WriteString("Format your response as:\n")
	b.WriteString("Score: [number]\n")
	b.WriteString("Feedback: [your feedback]")

	return b.String()
}

func summaryPrompt(questions []domain.Question) string {
	var b strings.Builder

	b.WriteString("Based on these interview responses, provide a feedback summary:\n\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "Q%d: %s\n", q.ID, q.Text)
		switch {
		case q.Skipped:
			b.WriteString("SKIPPED\n")
		case q.UserAnswer == "":
			b.WriteString("Answer: No answer provided\n")
		default:
			fmt.Fprintf(&b, "Answer: %s\n", q.UserAnswer)
		}
		if q.Score != 0 {
			fmt.Fprintf(&b, "Score: %d/%d\n", q.Score, parser.MaxScore)
		}
		b.WriteString("\n")
	}

	b.WriteString("Provide three specific areas for improvement and three learning resources.\n")
	b.WriteString("Format your response exactly like this example:\n")
	fmt.Fprintf(&b, "%s\n", parser.SectionImprovementAreas)
	b.WriteString("1. [First improvement area]\n")
	b.WriteString("2. [Second improvement area]\n")
	b.WriteString("3. [Third improvement area]\n")
	fmt.Fprintf(&b, "%s\n", parser.SectionEffectiveness)
	b.WriteString("[number between 1-100]\n")
	fmt.Fprintf(&b, "%s\n", parser.SectionResources)
	b.WriteString("1. [Resource title] | [URL] | [Brief description]\n")
	b.WriteString("2. [Resource title] | [URL] | [Brief description]\n")
	b.WriteString("3. [Resource title] | [URL] | [Brief description]")

	return b.String()
}
