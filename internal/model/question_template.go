package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Template lifecycle states.
const (
	TemplateStatusDraft     = "draft"
	TemplateStatusReview    = "review"
	TemplateStatusPublished = "published"
	TemplateStatusArchived  = "archived"
)

// VarDef declares the domain of one template variable: either a discrete
// choice list or a numeric [min, max] range. Exactly one of the two forms
// must be present; that is enforced at template creation.
type VarDef struct {
	Choices   []interface{} `json:"choices,omitempty"`
	Min       *float64      `json:"min,omitempty"`
	Max       *float64      `json:"max,omitempty"`
	Int       bool          `json:"int,omitempty"`
	Precision int           `json:"precision,omitempty"`
}

// VarMap stores the variable declarations of a template as jsonb.
type VarMap map[string]VarDef

func (m VarMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]VarDef(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *VarMap) Scan(src interface{}) error {
	b, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("VarMap scan: %w", err)
	}
	if len(b) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, (*map[string]VarDef)(m))
}

// QuestionTemplate is a parametric question pattern. Its markdown fields may
// reference declared variables as {{name}} placeholders; every placeholder
// must resolve to a declared variable, validated at creation.
type QuestionTemplate struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	TopicID         uint           `json:"topic_id" gorm:"not null;index"`
	Topic           Topic          `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
	Title           string         `json:"title" gorm:"not null"`
	PromptMD        string         `json:"prompt_md" gorm:"type:text;not null"`
	Variables       VarMap         `json:"variables" gorm:"type:jsonb;not null"`
	Difficulty      string         `json:"difficulty" gorm:"not null"`
	TeksCode        *string        `json:"teks_code,omitempty"`
	SolutionStepsMD *string        `json:"solution_steps_md,omitempty" gorm:"type:text"`
	ExplanationMD   *string        `json:"explanation_md,omitempty" gorm:"type:text"`
	Notes           *string        `json:"notes,omitempty" gorm:"type:text"`
	Status          string         `json:"status" gorm:"not null;default:'draft'"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
