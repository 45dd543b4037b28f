package model

import (
	"time"

	"gorm.io/gorm"
)

// Question is a static quiz question (the legacy path). Pooled quizzes draw
// from the bank instead and leave this table untouched.
type Question struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	QuizID         uint           `json:"quiz_id" gorm:"not null;index"`
	Prompt         string         `json:"prompt" gorm:"type:text;not null"`
	Options        StringSlice    `json:"options" gorm:"type:jsonb;not null"`
	CorrectIndex   int            `json:"correct_index" gorm:"not null"`
	Points         int            `json:"points" gorm:"not null;default:1"`
	TeksCode       *string        `json:"teks_code,omitempty"`
	BankQuestionID *uint          `json:"bank_question_id,omitempty"` // set when copied in by legacy quiz generation
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
