package grading

import (
	"testing"
)

func TestObjectiveGrader_ExactMatch(t *testing.T) {
	grader := &ObjectiveGrader{}

	tests := []struct {
		name     string
		expected string
		student  string
		maxScore float64
		want     float64
	}{
		{"Correct Answer", "4", "4", 1.0, 1.0},
		{"Wrong Answer", "4", "5", 1.0, 0.0},
		{"Case Insensitive", "Paris", "paris", 2.0, 2.0},
		{"Whitespace Trimmed", "  paris  ", "paris", 2.0, 2.0},
		{"Full Max Score Awarded", "ok", "ok", 3.5, 3.5},
		{"Empty Student Answer", "4", "", 1.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grader.Grade(tt.expected, tt.student, tt.maxScore)
			if got != tt.want {
				t.Errorf("Grade(%q, %q, %v) = %v, want %v", tt.expected, tt.student, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestObjectiveGrader_NumericRange(t *testing.T) {
	grader := &ObjectiveGrader{}

	tests := []struct {
		name     string
		expected string
		student  string
		maxScore float64
		want     float64
	}{
		{"Inside Range", "10-20", "13", 1.0, 1.0},
		{"Lower Bound", "10-20", "10", 1.0, 1.0},
		{"Upper Bound", "10-20", "20", 1.0, 1.0},
		{"Outside Range", "10-20", "25", 1.0, 0.0},
		{"Below Range", "10-20", "9.99", 1.0, 0.0},
		{"Decimal Inside", "0.5-1.5", "1.25", 2.0, 2.0},
		{"Non-Numeric Answer", "10-20", "abc", 1.0, 0.0},
		{"Malformed Range", "10-20-30", "15", 1.0, 0.0},
		{"Non-Numeric Range", "low-high", "15", 1.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grader.Grade(tt.expected, tt.student, tt.maxScore)
			if got != tt.want {
				t.Errorf("Grade(%q, %q, %v) = %v, want %v", tt.expected, tt.student, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestEssayGrader(t *testing.T) {
	grader := &EssayGrader{}

	tests := []struct {
		name     string
		expected string
		student  string
		maxScore float64
		want     float64
	}{
		{"All Keywords", "square, hypotenuse, triangle", "the square of the hypotenuse of a triangle", 3.0, 3.0},
		{"Partial Credit", "square, hypotenuse, triangle", "the square of the hypotenuse", 3.0, 2.0},
		{"One Of Three", "square, hypotenuse, triangle", "a triangle", 3.0, 1.0},
		{"No Keywords Matched", "square, hypotenuse, triangle", "completely unrelated", 3.0, 0.0},
		{"Case Insensitive", "Square, HYPOTENUSE", "the SQUARE of the hypotenuse", 2.0, 2.0},
		{"Repeated Keyword Counts Once", "square", "square square square", 5.0, 5.0},
		{"Empty Spec", "", "anything at all", 5.0, 0.0},
		{"Only Commas In Spec", ", ,, ,", "anything", 5.0, 0.0},
		{"Rounded To Two Decimals", "a, b, c", "has a only", 1.0, 0.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grader.Grade(tt.expected, tt.student, tt.maxScore)
			if got != tt.want {
				t.Errorf("Grade(%q, %q, %v) = %v, want %v", tt.expected, tt.student, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestGraderFor(t *testing.T) {
	tests := []struct {
		questionType string
		wantEssay    bool
	}{
		{"essay", true},
		{"objective", false},
		{"mcq", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.questionType, func(t *testing.T) {
			_, isEssay := GraderFor(tt.questionType).(*EssayGrader)
			if isEssay != tt.wantEssay {
				t.Errorf("GraderFor(%q): essay grader = %v, want %v", tt.questionType, isEssay, tt.wantEssay)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.2345, 1.23},
		{1.236, 1.24},
		{2.0 / 3.0 * 3.0, 2.0},
		{0.333333, 0.33},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
