package dto

import "time"

// StaticQuestionRequest is one static question supplied at quiz creation.
type StaticQuestionRequest struct {
	Prompt       string     `json:"prompt" binding:"required"`
	Options      OptionList `json:"options" binding:"required"`
	CorrectIndex *int       `json:"correct_index" binding:"required"`
	Points       int        `json:"points"`
	TeksCode     *string    `json:"teks_code"`
}

// QuizCreateRequest creates a quiz, optionally with its static questions.
type QuizCreateRequest struct {
	Title           string                  `json:"title" binding:"required"`
	DurationSeconds int                     `json:"duration_seconds" binding:"required,gt=0"`
	Questions       []StaticQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// QuizQuestionsAddRequest appends static questions to an existing quiz.
type QuizQuestionsAddRequest struct {
	Questions []StaticQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type QuizResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
	QuestionCount   int       `json:"question_count,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// BankQuestionCreateRequest adds one question to the bank under a topic slug.
type BankQuestionCreateRequest struct {
	TopicSlug    string     `json:"topic_slug" binding:"required"`
	Difficulty   string     `json:"difficulty"`
	Prompt       string     `json:"prompt" binding:"required"`
	Options      OptionList `json:"options" binding:"required"`
	CorrectIndex *int       `json:"correct_index" binding:"required"`
	TeksCode     *string    `json:"teks_code"`
	Explanation  *string    `json:"explanation"`
}

// PoolCreateRequest attaches a draw rule to a quiz.
type PoolCreateRequest struct {
	QuizID     uint   `json:"quiz_id" binding:"required"`
	TopicSlug  string `json:"topic_slug" binding:"required"`
	Difficulty string `json:"difficulty"`
	DrawCount  int    `json:"draw_count" binding:"required,min=1"`
}

// PoolResponse includes the number of bank questions currently matching the
// pool, an admin-facing diagnostic only.
type PoolResponse struct {
	ID         uint   `json:"id"`
	QuizID     uint   `json:"quiz_id"`
	TopicSlug  string `json:"topic_slug"`
	Difficulty string `json:"difficulty"`
	DrawCount  int    `json:"draw_count"`
	Available  int64  `json:"available"`
}

// WeightedSourceItem references a bank question with an optional sampling
// weight (default 1) for legacy quiz generation.
type WeightedSourceItem struct {
	BankQuestionID uint    `json:"bank_question_id" binding:"required"`
	Weight         float64 `json:"weight"`
}

// QuizSourceRequest asks for Count items weighted-sampled from Items.
type QuizSourceRequest struct {
	Count int                  `json:"count" binding:"required,min=1"`
	Items []WeightedSourceItem `json:"items" binding:"required,min=1,dive"`
}

// QuizGenerateRequest builds a static quiz by weighted-sampling curated bank
// question sets (the legacy template-based path).
type QuizGenerateRequest struct {
	Title           string              `json:"title" binding:"required"`
	DurationSeconds int                 `json:"duration_seconds"`
	Sources         []QuizSourceRequest `json:"sources" binding:"required,min=1,dive"`
}

// MintLinksRequest mints one access link per student email.
type MintLinksRequest struct {
	QuizID   uint     `json:"quiz_id" binding:"required"`
	Emails   []string `json:"emails" binding:"required,min=1,dive,email"`
	Days     int      `json:"days"`
	Attempts int      `json:"attempts"`
	Send     bool     `json:"send"`
}

type MintedLink struct {
	StudentEmail string `json:"student_email"`
	Token        string `json:"token"`
	URL          string `json:"url"`
	MailError    string `json:"mail_error,omitempty"`
}

type MintLinksResponse struct {
	Links []MintedLink `json:"links"`
}

// QuizSummaryResponse validates scoring output at a glance.
type QuizSummaryResponse struct {
	QuizID       uint    `json:"quiz_id"`
	AttemptCount int64   `json:"attempt_count"`
	AverageScore float64 `json:"average_score"`
}
