package course

import "gorm.io/gorm"

// QuizOption represents an option for a QUIZ lesson's question.
// Practice quizzes are scored against these locally known correct sets;
// the terminal exam has its own models and must never reuse this path.
type QuizOption struct {
	gorm.Model
	LessonID   uint   `json:"lesson_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}

// QuizAttempt represents a student's attempt at a practice quiz lesson.
// Repeat attempts are allowed; a correct attempt completes the lesson.
type QuizAttempt struct {
	gorm.Model
	UserID          uint   `json:"user_id" gorm:"index;not null"`
	LessonID        uint   `json:"lesson_id" gorm:"index;not null"`
	SelectedOptions string `json:"selected_options"` // JSON array of selected option IDs
	Score           int    `json:"score"`
	MaxScore        int    `json:"max_score"`
	IsCorrect       bool   `json:"is_correct" gorm:"default:false"`
	AttemptNumber   int    `json:"attempt_number" gorm:"default:1"`
	IsDeleted       bool   `gorm:"default:false"`
}
