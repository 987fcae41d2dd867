package services

import (
	"errors"
	"fmt"

	"github.com/exam-system/backend/internal/grading"
	"github.com/exam-system/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrInvalidQuestion  = errors.New("invalid question id")
	ErrNotGradable      = errors.New("submission has no answers")
)

type SubmissionService struct {
	db *gorm.DB
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{db: db}
}

// Submit validates answers against the exam's question set, creates the
// submission together with all its answer rows, then grades it. The
// validate-and-create step is one transaction: a duplicate submission or an
// answer referencing a foreign question leaves no rows behind. The unique
// (student_id, exam_id) index is the arbiter when two submissions race; the
// loser's constraint violation surfaces as ErrAlreadySubmitted.
func (s *SubmissionService) Submit(studentID, examID uuid.UUID, answers map[string]string) (*models.Submission, error) {
	var submission models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var exam models.Exam
		if err := tx.Preload("Questions").First(&exam, "id = ?", examID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExamNotFound
			}
			return err
		}

		var existing models.Submission
		err := tx.Where("student_id = ? AND exam_id = ?", studentID, examID).First(&existing).Error
		if err == nil {
			return ErrAlreadySubmitted
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		questions := make(map[uuid.UUID]*models.Question, len(exam.Questions))
		for i := range exam.Questions {
			questions[exam.Questions[i].ID] = &exam.Questions[i]
		}

		submission = models.Submission{
			StudentID: studentID,
			ExamID:    examID,
		}
		if err := tx.Create(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubmitted
			}
			return err
		}

		for qid, studentAnswer := range answers {
			questionID, err := uuid.Parse(qid)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidQuestion, qid)
			}
			question, ok := questions[questionID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrInvalidQuestion, qid)
			}

			answer := models.SubmissionAnswer{
				SubmissionID:  submission.ID,
				QuestionID:    question.ID,
				StudentAnswer: studentAnswer,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Grade(submission.ID); err != nil {
		return nil, err
	}

	return s.Get(submission.ID)
}

// Grade scores every answer of a submission and writes the aggregate score.
// All writes happen in one transaction: a failure on any answer rolls the
// whole pass back, leaving every awarded score and the submission score
// NULL. Re-grading an already-graded submission recomputes deterministically.
func (s *SubmissionService) Grade(submissionID uuid.UUID) (float64, error) {
	var finalScore float64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var answers []models.SubmissionAnswer
		if err := tx.Preload("Question").
			Where("submission_id = ?", submissionID).
			Find(&answers).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return ErrNotGradable
		}

		totalScore := 0.0
		for i := range answers {
			question := answers[i].Question
			if question == nil {
				return fmt.Errorf("%w: answer %s has no question", ErrInvalidQuestion, answers[i].ID)
			}

			grader := grading.GraderFor(question.QuestionType)
			score := grader.Grade(question.ExpectedAnswer, answers[i].StudentAnswer, question.MaxScore)

			if err := tx.Model(&answers[i]).Update("awarded_score", score).Error; err != nil {
				return err
			}
			totalScore += score
		}

		finalScore = grading.Round2(totalScore)
		return tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Update("score", finalScore).Error
	})
	if err != nil {
		return 0, err
	}

	return finalScore, nil
}

// Get loads a submission with its answers and their questions.
func (s *SubmissionService) Get(submissionID uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.Preload("Exam").
		Preload("Answers").
		Preload("Answers.Question").
		First(&submission, "id = ?", submissionID).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByStudent returns a student's submissions, newest first.
func (s *SubmissionService) ListByStudent(studentID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := s.db.Preload("Exam").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
