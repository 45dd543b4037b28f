package dto

import (
	"time"

	"github.com/lmorrow/quizforge/internal/model"
)

// TemplateCreateRequest declares a parametric question template. Variables
// and placeholders are validated before anything is persisted.
type TemplateCreateRequest struct {
	Title           string                  `json:"title" binding:"required"`
	TopicSlug       string                  `json:"topic_slug" binding:"required"`
	Difficulty      string                  `json:"difficulty"`
	TeksCode        *string                 `json:"teks_code"`
	PromptMD        string                  `json:"prompt_md" binding:"required"`
	Variables       map[string]model.VarDef `json:"variables" binding:"required"`
	SolutionStepsMD *string                 `json:"solution_steps_md"`
	ExplanationMD   *string                 `json:"explanation_md"`
	Notes           *string                 `json:"notes"`
}

type TemplateResponse struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	TopicSlug  string    `json:"topic_slug"`
	Difficulty string    `json:"difficulty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type TemplateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft review published archived"`
}

type TemplatePreviewRequest struct {
	TemplateID uint `json:"template_id" binding:"required"`
	N          int  `json:"n"`
}

// PreviewSample exposes the correct index. Previews are admin-only and
// never reach students.
type PreviewSample struct {
	ID            int                    `json:"id"`
	Values        map[string]interface{} `json:"values"`
	Prompt        string                 `json:"prompt"`
	Options       []string               `json:"options"`
	CorrectIndex  int                    `json:"correctIndex"`
	CorrectAnswer string                 `json:"correctAnswer"`
	SolutionSteps *string                `json:"solutionSteps,omitempty"`
	Explanation   *string                `json:"explanation,omitempty"`
}

type TemplatePreviewResponse struct {
	Template TemplateResponse `json:"template"`
	Samples  []PreviewSample  `json:"samples"`
}

type TemplatePublishRequest struct {
	TemplateID uint    `json:"template_id" binding:"required"`
	HowMany    int     `json:"how_many"`
	Seed       *uint64 `json:"seed"`
}

type TemplatePublishResponse struct {
	TemplateID uint `json:"template_id"`
	Version    int  `json:"version"`
	Inserted   int  `json:"inserted"`
}
