package model

import "time"

// StudentLink is a time-boxed per-student access link. The token is an opaque
// 128-bit hex identifier, unique per (quiz_id, token). A link may be consumed
// up to MaxAttempts times, each consumption producing one Attempt.
type StudentLink struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	QuizID       uint      `json:"quiz_id" gorm:"not null;uniqueIndex:idx_link_quiz_token"`
	Quiz         Quiz      `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	StudentEmail string    `json:"student_email" gorm:"not null;index"`
	Token        string    `json:"token" gorm:"not null;uniqueIndex:idx_link_quiz_token"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	MaxAttempts  int       `json:"max_attempts" gorm:"not null;default:1"`
	CreatedAt    time.Time `json:"created_at"`
}
