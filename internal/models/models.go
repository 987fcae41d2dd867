package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB custom type for JSON fields
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Base model with UUID
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User represents system users (student/admin)
type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         string `gorm:"type:varchar(20);not null" json:"role"`
	FullName     string `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	Meta         JSONB  `gorm:"type:json" json:"meta"`
}

// Exam represents a timed assessment composed of questions
type Exam struct {
	BaseModel
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Course          string     `gorm:"type:varchar(100);not null;index" json:"course"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	Metadata        JSONB      `gorm:"type:json" json:"metadata"`
	CreatedBy       *uuid.UUID `gorm:"type:char(36)" json:"created_by,omitempty"`
	Questions       []Question `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
}

// Question types
const (
	QuestionTypeMCQ       = "mcq"
	QuestionTypeObjective = "objective"
	QuestionTypeEssay     = "essay"
)

// Question belongs to exactly one exam. ExpectedAnswer format depends on
// the question type: a literal or "low-high" range for objective/mcq, a
// comma-separated keyword list for essay.
type Question struct {
	BaseModel
	ExamID         uuid.UUID `gorm:"type:char(36);not null;index:idx_question_exam_type" json:"exam_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	QuestionType   string    `gorm:"type:varchar(20);not null;index:idx_question_exam_type" json:"question_type"`
	ExpectedAnswer string    `gorm:"type:text;not null" json:"-"`
	MaxScore       float64   `gorm:"type:decimal(5,2);default:1.0" json:"max_score"`
	Exam           *Exam     `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
}

// Submission is one student's attempt at one exam. The composite unique
// index makes the store the arbiter of concurrent duplicate submissions.
// Score stays NULL until grading completes.
type Submission struct {
	BaseModel
	StudentID uuid.UUID          `gorm:"type:char(36);not null;uniqueIndex:idx_submission_student_exam" json:"student_id"`
	ExamID    uuid.UUID          `gorm:"type:char(36);not null;uniqueIndex:idx_submission_student_exam" json:"exam_id"`
	Score     *float64           `gorm:"type:decimal(8,2)" json:"score"`
	Student   *User              `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Exam      *Exam              `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Answers   []SubmissionAnswer `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
}

// SubmissionAnswer holds one student response. AwardedScore stays NULL
// until grading completes, then lands in [0, question.MaxScore].
type SubmissionAnswer struct {
	BaseModel
	SubmissionID  uuid.UUID `gorm:"type:char(36);not null;index" json:"submission_id"`
	QuestionID    uuid.UUID `gorm:"type:char(36);not null;index" json:"question_id"`
	StudentAnswer string    `gorm:"type:text" json:"student_answer"`
	AwardedScore  *float64  `gorm:"type:decimal(8,2)" json:"awarded_score"`
	Question      *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// AuditLog tracks all data changes
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ActorUserID  uuid.UUID `gorm:"type:char(36);index" json:"actor_user_id"`
	Action       string    `gorm:"type:varchar(50);not null" json:"action"`
	ResourceType string    `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   uuid.UUID `gorm:"type:char(36);index" json:"resource_id"`
	Before       JSONB     `gorm:"type:json" json:"before"`
	After        JSONB     `gorm:"type:json" json:"after"`
	Timestamp    time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	IP           string    `gorm:"type:varchar(45)" json:"ip"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores refresh tokens for revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"default:false;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
