package handlers

import (
	"net/http"

	"github.com/exam-system/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamHandler struct {
	db *gorm.DB
}

func NewExamHandler(db *gorm.DB) *ExamHandler {
	return &ExamHandler{db: db}
}

// @Summary List exams
// @Tags exams
// @Produce json
// @Success 200 {array} models.Exam
// @Router /api/v1/exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	course := c.Query("course")

	var exams []models.Exam
	query := h.db.Order("created_at DESC")
	if course != "" {
		query = query.Where("course = ?", course)
	}

	if err := query.Find(&exams).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, exams)
}

// @Summary Get an exam with its questions
// @Tags exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} models.Exam
// @Router /api/v1/exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var exam models.Exam
	if err := h.db.Preload("Questions").First(&exam, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	}

	c.JSON(http.StatusOK, exam)
}

type CreateExamRequest struct {
	Title           string       `json:"title" binding:"required"`
	Course          string       `json:"course" binding:"required"`
	DurationMinutes int          `json:"duration_minutes" binding:"required,min=1"`
	Metadata        models.JSONB `json:"metadata"`
}

// @Summary Create an exam
// @Tags exams
// @Accept json
// @Produce json
// @Param request body CreateExamRequest true "Exam"
// @Success 201 {object} models.Exam
// @Router /api/v1/exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exam := models.Exam{
		Title:           req.Title,
		Course:          req.Course,
		DurationMinutes: req.DurationMinutes,
		Metadata:        req.Metadata,
	}
	if userID, ok := c.Get("user_id"); ok {
		if uid, ok := userID.(uuid.UUID); ok {
			exam.CreatedBy = &uid
		}
	}

	if err := h.db.Create(&exam).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, exam)
}

type CreateQuestionRequest struct {
	Text           string  `json:"text" binding:"required"`
	QuestionType   string  `json:"question_type" binding:"required,oneof=mcq objective essay"`
	ExpectedAnswer string  `json:"expected_answer" binding:"required"`
	MaxScore       float64 `json:"max_score" binding:"omitempty,gte=0"`
}

// @Summary Add a question to an exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param request body CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Router /api/v1/exams/{id}/questions [post]
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exam ID"})
		return
	}

	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var exam models.Exam
	if err := h.db.First(&exam, "id = ?", examID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	}

	// Exams with graded submissions are immutable
	var graded int64
	h.db.Model(&models.Submission{}).Where("exam_id = ? AND score IS NOT NULL", examID).Count(&graded)
	if graded > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Exam already has graded submissions"})
		return
	}

	maxScore := req.MaxScore
	if maxScore == 0 {
		maxScore = 1.0
	}

	question := models.Question{
		ExamID:         examID,
		Text:           req.Text,
		QuestionType:   req.QuestionType,
		ExpectedAnswer: req.ExpectedAnswer,
		MaxScore:       maxScore,
	}

	if err := h.db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, question)
}

// @Summary Update an exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param request body CreateExamRequest true "Exam"
// @Success 200 {object} models.Exam
// @Router /api/v1/exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var exam models.Exam
	if err := h.db.First(&exam, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	}

	// Exams with graded submissions are immutable
	var graded int64
	h.db.Model(&models.Submission{}).Where("exam_id = ? AND score IS NOT NULL", exam.ID).Count(&graded)
	if graded > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Exam already has graded submissions"})
		return
	}

	var req CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exam.Title = req.Title
	exam.Course = req.Course
	exam.DurationMinutes = req.DurationMinutes
	exam.Metadata = req.Metadata

	if err := h.db.Save(&exam).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, exam)
}

// @Summary Delete an exam
// @Tags exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200
// @Router /api/v1/exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Delete(&models.Exam{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exam deleted"})
}
