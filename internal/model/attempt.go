package model

import "time"

// Attempt is one timed sitting of a quiz. EndsAt is immutable after
// creation; grading rejects submissions past it. Finished is terminal and
// flipped exactly once, guarded by a conditional update.
type Attempt struct {
	ID           uint          `gorm:"primarykey" json:"id"`
	QuizID       uint          `json:"quiz_id" gorm:"not null;index:idx_attempt_quiz_email"`
	Quiz         Quiz          `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	StudentEmail string        `json:"student_email" gorm:"not null;index:idx_attempt_quiz_email"`
	EndsAt       time.Time     `json:"ends_at" gorm:"not null"`
	Finished     bool          `json:"finished" gorm:"not null;default:false"`
	Score        *int          `json:"score,omitempty"`
	Items        []AttemptItem `json:"items,omitempty" gorm:"foreignKey:AttemptID"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
