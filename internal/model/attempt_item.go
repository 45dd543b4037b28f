package model

import "time"

// AttemptItem sources.
const (
	ItemSourceStatic = "static"
	ItemSourceBank   = "bank"
)

// AttemptItem is the frozen per-attempt copy of one question, created
// atomically with its siblings at attempt-creation time. It is the single
// source of truth for grading: bank or question edits after attempt creation
// never touch it. CorrectIndex is stripped from every client-facing view
// until the attempt is closed.
type AttemptItem struct {
	ID           uint        `gorm:"primarykey" json:"id"`
	AttemptID    uint        `json:"attempt_id" gorm:"not null;index"`
	Source       string      `json:"source" gorm:"not null"` // static or bank
	QuestionID   *uint       `json:"question_id,omitempty"`
	BankItemID   *uint       `json:"bank_item_id,omitempty"`
	Prompt       string      `json:"prompt" gorm:"type:text;not null"`
	Options      StringSlice `json:"options" gorm:"type:jsonb;not null"`
	CorrectIndex int         `json:"correct_index" gorm:"not null"`
	Points       int         `json:"points" gorm:"not null;default:1"`
	CreatedAt    time.Time   `json:"created_at"`
}
