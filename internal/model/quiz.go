package model

import (
	"time"

	"gorm.io/gorm"
)

// Quiz owns either a static question list or one or more pools. When pools
// exist they govern attempt content; the static list is only the fallback.
type Quiz struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `json:"title" gorm:"not null"`
	DurationSeconds int            `json:"duration_seconds" gorm:"not null"`
	Questions       []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	Pools           []QuizPool     `json:"pools,omitempty" gorm:"foreignKey:QuizID"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
