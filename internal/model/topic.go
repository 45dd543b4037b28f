package model

import "time"

// Topic is keyed by its slug, the canonical "course-unit" string.
// Topics are created lazily on first reference and never deleted here.
type Topic struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Course    string    `json:"course" gorm:"not null"`
	Unit      string    `json:"unit" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
