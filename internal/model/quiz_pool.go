package model

import "time"

// QuizPool declares "draw DrawCount bank questions of this topic+difficulty
// for this quiz", resolved at attempt-creation time.
type QuizPool struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	QuizID     uint      `json:"quiz_id" gorm:"not null;index"`
	TopicID    uint      `json:"topic_id" gorm:"not null"`
	Topic      Topic     `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
	Difficulty string    `json:"difficulty" gorm:"not null"`
	DrawCount  int       `json:"draw_count" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}
