package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/exam-system/backend/internal/models"
	"github.com/exam-system/backend/internal/observability"
	"github.com/exam-system/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
	auditService      *services.AuditService
}

func NewSubmissionHandler(submissionService *services.SubmissionService, auditService *services.AuditService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		auditService:      auditService,
	}
}

type SubmitExamRequest struct {
	// Mapping of question_id to student_answer
	Answers map[string]string `json:"answers" binding:"required,min=1"`
}

// @Summary Submit answers for an exam and receive the graded result
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param request body SubmitExamRequest true "Answers keyed by question ID"
// @Success 201 {object} models.Submission
// @Router /api/v1/exams/{id}/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exam ID"})
		return
	}

	var req SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID := c.MustGet("user_id").(uuid.UUID)

	start := time.Now()
	submission, err := h.submissionService.Submit(studentID, examID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExamNotFound):
			observability.Submissions().WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		case errors.Is(err, services.ErrAlreadySubmitted):
			observability.Submissions().WithLabelValues("duplicate").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Exam already submitted"})
		case errors.Is(err, services.ErrInvalidQuestion):
			observability.Submissions().WithLabelValues("invalid_question").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			observability.Submissions().WithLabelValues("error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit exam"})
		}
		return
	}
	observability.Submissions().WithLabelValues("graded").Inc()
	observability.GradingLatency().Observe(time.Since(start).Seconds())

	h.auditService.Log(studentID, "submit", "submission", submission.ID,
		nil, models.JSONB{"exam_id": examID.String(), "score": submission.Score}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"id":           submission.ID,
		"exam_id":      submission.ExamID,
		"score":        submission.Score,
		"submitted_at": submission.CreatedAt,
	})
}

// @Summary List the authenticated student's submissions
// @Tags submissions
// @Produce json
// @Success 200 {array} models.Submission
// @Router /api/v1/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	studentID := c.MustGet("user_id").(uuid.UUID)

	submissions, err := h.submissionService.ListByStudent(studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// @Summary Get a submission with per-answer scores
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} models.Submission
// @Router /api/v1/submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	submission, err := h.submissionService.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	// Owner or admin only
	userID := c.MustGet("user_id").(uuid.UUID)
	role := c.GetString("role")
	if submission.StudentID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, submission)
}
