package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Exam attempt statuses
const (
	AttemptInProgress = "IN_PROGRESS" // answering
	AttemptSubmitted  = "SUBMITTED"   // awaiting satisfaction survey
	AttemptPassed     = "PASSED"
	AttemptFailed     = "FAILED"
	AttemptExpired    = "EXPIRED" // abandoned attempt closed by the scheduler
)

// Exam represents the terminal, certificate-granting assessment of a course.
// Unlike practice quizzes, exams carry no countdown timer and are scored
// server-side only.
type Exam struct {
	gorm.Model
	CourseID     uint   `json:"course_id" gorm:"index;not null"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PassingScore int    `json:"passing_score" gorm:"default:60"` // percentage of max points required to pass
	IsPublished  bool   `json:"is_published" gorm:"default:false"`
	IsDeleted    bool   `gorm:"default:false"`
}

// ExamQuestion represents a question within an exam
type ExamQuestion struct {
	gorm.Model
	ExamID       uint   `json:"exam_id" gorm:"index;not null"`
	Prompt       string `json:"prompt" gorm:"type:text"`
	QuestionType string `json:"question_type" gorm:"default:'SINGLE'"` // SINGLE, MULTI, TEXT
	Points       int    `json:"points" gorm:"default:1"`
	OrderIndex   int    `json:"order_index" gorm:"default:0"`
	IsDeleted    bool   `gorm:"default:false"`
}

// ExamChoice represents a selectable choice for SINGLE/MULTI questions
type ExamChoice struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	ChoiceText string `json:"choice_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}

// ExamAttempt tracks a user's single try at an exam. Answers are keyed by
// question ID so scoring is unaffected by question ordering. Once an attempt
// is PASSED no further attempt may be started for that exam, and score/result
// stay hidden until the satisfaction survey is recorded.
type ExamAttempt struct {
	gorm.Model
	UserID              uint              `json:"user_id" gorm:"index;not null"`
	ExamID              uint              `json:"exam_id" gorm:"index;not null"`
	CourseID            uint              `json:"course_id" gorm:"index;not null"`
	Status              string            `json:"status" gorm:"default:'IN_PROGRESS'"`
	Answers             datatypes.JSONMap `json:"answers"` // question ID -> selected choice ID(s) or free text
	CertificateName     string            `json:"certificate_name"`
	CertificateEmail    string            `json:"certificate_email"` // always the account email, never overridable
	Score               int               `json:"score" gorm:"default:0"`
	MaxScore            int               `json:"max_score" gorm:"default:0"`
	SatisfactionRating  int               `json:"satisfaction_rating" gorm:"default:0"` // 1-5, 0 = not yet submitted
	SatisfactionComment string            `json:"satisfaction_comment" gorm:"type:text"`
	SubmittedAt         *time.Time        `json:"submitted_at"`
	FinalizedAt         *time.Time        `json:"finalized_at"`
	IsDeleted           bool              `gorm:"default:false"`
}
