package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/exam-system/backend/internal/models"
)

// Grader scores a single answer against its expected-answer specification.
// Implementations are pure and never fail: malformed input degrades to a
// zero score rather than an error.
type Grader interface {
	Grade(expectedAnswer, studentAnswer string, maxScore float64) float64
}

// ObjectiveGrader handles:
// - Single correct answer (exact match after trim + lowercase)
// - Numeric ranges (e.g. "10-20")
type ObjectiveGrader struct{}

func (g *ObjectiveGrader) Grade(expectedAnswer, studentAnswer string, maxScore float64) float64 {
	expected := strings.ToLower(strings.TrimSpace(expectedAnswer))
	student := strings.ToLower(strings.TrimSpace(studentAnswer))

	// Numeric range support
	if strings.Contains(expected, "-") {
		parts := strings.Split(expected, "-")
		if len(parts) != 2 {
			return 0
		}
		low, errLow := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		high, errHigh := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		value, errVal := strconv.ParseFloat(student, 64)
		if errLow != nil || errHigh != nil || errVal != nil {
			return 0
		}
		if low <= value && value <= high {
			return maxScore
		}
		return 0
	}

	// Exact match
	if student == expected {
		return maxScore
	}
	return 0
}

// EssayGrader awards keyword-based partial credit.
// expectedAnswer = "keyword1, keyword2, keyword3"
type EssayGrader struct{}

func (g *EssayGrader) Grade(expectedAnswer, studentAnswer string, maxScore float64) float64 {
	var keywords []string
	for _, k := range strings.Split(expectedAnswer, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}

	if len(keywords) == 0 {
		return 0
	}

	studentText := strings.ToLower(studentAnswer)

	matched := 0
	for _, kw := range keywords {
		if strings.Contains(studentText, kw) {
			matched++
		}
	}

	score := (float64(matched) / float64(len(keywords))) * maxScore
	return Round2(score)
}

// GraderFor returns the grader for a question type. Objective is the
// fallback for every non-essay type, mcq included.
func GraderFor(questionType string) Grader {
	if questionType == models.QuestionTypeEssay {
		return &EssayGrader{}
	}
	return &ObjectiveGrader{}
}

// Round2 rounds to 2 decimal places.
func Round2(score float64) float64 {
	return math.Round(score*100) / 100
}
