package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/exam-system/backend/internal/grading"
	"github.com/exam-system/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Exam{},
		&models.Question{},
		&models.Submission{},
		&models.SubmissionAnswer{},
	))
	return db
}

func seedExam(t *testing.T, db *gorm.DB) (models.Exam, []models.Question) {
	t.Helper()

	exam := models.Exam{Title: "Sample Exam", Course: "Math 101", DurationMinutes: 30}
	require.NoError(t, db.Create(&exam).Error)

	questions := []models.Question{
		{ExamID: exam.ID, Text: "What is 2 + 2?", QuestionType: models.QuestionTypeObjective, ExpectedAnswer: "4", MaxScore: 1.0},
		{ExamID: exam.ID, Text: "Name a prime between 10 and 20.", QuestionType: models.QuestionTypeObjective, ExpectedAnswer: "10-20", MaxScore: 1.0},
		{ExamID: exam.ID, Text: "Explain Pythagoras theorem.", QuestionType: models.QuestionTypeEssay, ExpectedAnswer: "square, hypotenuse, triangle", MaxScore: 3.0},
	}
	require.NoError(t, db.Create(&questions).Error)
	return exam, questions
}

func seedStudent(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	student := models.User{Email: fmt.Sprintf("%s@test.local", uuid.NewString()), PasswordHash: "x", Role: "student", FullName: "Test Student", IsActive: true}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func TestSubmitGradesAndPersists(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	submission, err := svc.Submit(student.ID, exam.ID, map[string]string{
		questions[0].ID.String(): "4",
		questions[1].ID.String(): "13",
		questions[2].ID.String(): "the square of the hypotenuse",
	})
	require.NoError(t, err)
	require.NotNil(t, submission.Score)
	require.Equal(t, 4.0, *submission.Score, "1 + 1 + 2/3 of 3")
	require.Len(t, submission.Answers, 3)

	awarded := map[uuid.UUID]float64{}
	for _, ans := range submission.Answers {
		require.NotNil(t, ans.AwardedScore)
		awarded[ans.QuestionID] = *ans.AwardedScore
	}
	require.Equal(t, 1.0, awarded[questions[0].ID])
	require.Equal(t, 1.0, awarded[questions[1].ID])
	require.Equal(t, 2.0, awarded[questions[2].ID])
}

func TestSubmitMalformedNumericScoresZero(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	submission, err := svc.Submit(student.ID, exam.ID, map[string]string{
		questions[1].ID.String(): "abc",
	})
	require.NoError(t, err, "malformed numeric answers degrade to zero, never error")
	require.NotNil(t, submission.Score)
	require.Equal(t, 0.0, *submission.Score)
}

func TestSubmitUnknownExam(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	student := seedStudent(t, db)

	_, err := svc.Submit(student.ID, uuid.New(), map[string]string{uuid.NewString(): "4"})
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestSubmitDuplicateRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	answers := map[string]string{questions[0].ID.String(): "4"}
	_, err := svc.Submit(student.ID, exam.ID, answers)
	require.NoError(t, err)

	_, err = svc.Submit(student.ID, exam.ID, answers)
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	var submissions int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&submissions).Error)
	require.Equal(t, int64(1), submissions)

	var answerRows int64
	require.NoError(t, db.Model(&models.SubmissionAnswer{}).Count(&answerRows).Error)
	require.Equal(t, int64(1), answerRows)
}

func TestSubmitOtherStudentUnaffected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	first := seedStudent(t, db)
	second := seedStudent(t, db)

	answers := map[string]string{questions[0].ID.String(): "4"}
	_, err := svc.Submit(first.ID, exam.ID, answers)
	require.NoError(t, err)

	_, err = svc.Submit(second.ID, exam.ID, answers)
	require.NoError(t, err, "uniqueness is per (student, exam) pair")
}

func TestSubmitInvalidQuestionLeavesNoRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	_, err := svc.Submit(student.ID, exam.ID, map[string]string{
		questions[0].ID.String(): "4",
		uuid.NewString():         "stowaway",
	})
	require.ErrorIs(t, err, ErrInvalidQuestion)

	var submissions int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&submissions).Error)
	require.Zero(t, submissions)

	var answerRows int64
	require.NoError(t, db.Model(&models.SubmissionAnswer{}).Count(&answerRows).Error)
	require.Zero(t, answerRows)
}

func TestSubmitQuestionFromOtherExamRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, _ := seedExam(t, db)
	_, otherQuestions := seedExam(t, db)
	student := seedStudent(t, db)

	_, err := svc.Submit(student.ID, exam.ID, map[string]string{
		otherQuestions[0].ID.String(): "4",
	})
	require.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestGradeIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	submission, err := svc.Submit(student.ID, exam.ID, map[string]string{
		questions[0].ID.String(): "4",
		questions[2].ID.String(): "hypotenuse and triangle",
	})
	require.NoError(t, err)
	require.NotNil(t, submission.Score)
	first := *submission.Score

	second, err := svc.Grade(submission.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	reloaded, err := svc.Get(submission.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Score)
	require.Equal(t, first, *reloaded.Score)
}

func TestGradeTotalInvariant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	submission, err := svc.Submit(student.ID, exam.ID, map[string]string{
		questions[0].ID.String(): "5",
		questions[1].ID.String(): "17",
		questions[2].ID.String(): "the hypotenuse",
	})
	require.NoError(t, err)

	sum := 0.0
	for _, ans := range submission.Answers {
		require.NotNil(t, ans.AwardedScore)
		sum += *ans.AwardedScore
	}
	require.NotNil(t, submission.Score)
	require.Equal(t, grading.Round2(sum), *submission.Score)
}

func TestGradeEmptySubmission(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)

	_, err := svc.Grade(uuid.New())
	require.ErrorIs(t, err, ErrNotGradable)
}

func TestGradePartialFailureRollsBack(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubmissionService(db)
	exam, questions := seedExam(t, db)
	student := seedStudent(t, db)

	// Create a pending submission with three answers, bypassing Submit so
	// the grading pass is the only writer under test.
	submission := models.Submission{StudentID: student.ID, ExamID: exam.ID}
	require.NoError(t, db.Create(&submission).Error)
	for _, q := range questions {
		answer := models.SubmissionAnswer{SubmissionID: submission.ID, QuestionID: q.ID, StudentAnswer: "4"}
		require.NoError(t, db.Create(&answer).Error)
	}

	// Fail the second answer-score write.
	updates := 0
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("fail_second_answer", func(tx *gorm.DB) {
		if tx.Statement.Table != "submission_answers" {
			return
		}
		updates++
		if updates == 2 {
			tx.AddError(errors.New("storage failure"))
		}
	}))
	defer db.Callback().Update().Remove("fail_second_answer")

	_, err := svc.Grade(submission.ID)
	require.Error(t, err)
	require.Equal(t, 2, updates, "grading must stop at the failing write")

	var reloaded models.Submission
	require.NoError(t, db.Preload("Answers").First(&reloaded, "id = ?", submission.ID).Error)
	require.Nil(t, reloaded.Score, "submission score must stay unset after rollback")
	require.Len(t, reloaded.Answers, 3)
	for _, ans := range reloaded.Answers {
		require.Nil(t, ans.AwardedScore, "no awarded score may survive rollback")
	}
}
