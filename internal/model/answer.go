package model

import "time"

// Answer records the graded outcome for one AttemptItem. One row per item
// per attempt, upserted once at submission; re-grading must not duplicate.
type Answer struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	AttemptID     uint      `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_item"`
	AttemptItemID uint      `json:"attempt_item_id" gorm:"not null;uniqueIndex:idx_answer_attempt_item"`
	SelectedIndex *int      `json:"selected_index,omitempty"`
	IsCorrect     bool      `json:"is_correct" gorm:"not null"`
	Explanation   *string   `json:"explanation,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
