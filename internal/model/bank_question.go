package model

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty levels stored on bank questions, templates and pools.
const (
	DifficultyEasy = "easy"
	DifficultyMed  = "med"
	DifficultyHard = "hard"
)

// BankQuestion is a standalone multiple-choice item stored by
// topic+difficulty, independent of any specific quiz. Once an attempt has
// snapshotted it, later edits must not affect the in-flight attempt; grading
// only ever reads the AttemptItem copy.
type BankQuestion struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	TopicID          uint           `json:"topic_id" gorm:"not null;index:idx_bank_topic_difficulty"`
	Topic            Topic          `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
	Prompt           string         `json:"prompt" gorm:"type:text;not null"`
	Options          StringSlice    `json:"options" gorm:"type:jsonb;not null"`
	CorrectIndex     int            `json:"correct_index" gorm:"not null"`
	Difficulty       string         `json:"difficulty" gorm:"not null;index:idx_bank_topic_difficulty"` // easy, med, hard
	TeksCode         *string        `json:"teks_code,omitempty"`
	Explanation      *string        `json:"explanation,omitempty" gorm:"type:text"`
	CreatedBy        string         `json:"created_by"`
	OriginTemplateID *uint          `json:"origin_template_id,omitempty" gorm:"index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
