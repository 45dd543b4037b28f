package model

import "time"

// TemplateVersion is an immutable snapshot of a template's fields taken at
// publish time. Versions increment monotonically per template and are never
// mutated afterwards.
type TemplateVersion struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	TemplateID uint      `json:"template_id" gorm:"not null;uniqueIndex:idx_template_version"`
	Version    int       `json:"version" gorm:"not null;uniqueIndex:idx_template_version"`
	Snapshot   JSONMap   `json:"snapshot" gorm:"type:jsonb;not null"`
	CreatedAt  time.Time `json:"created_at"`
}
