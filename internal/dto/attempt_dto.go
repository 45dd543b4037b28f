package dto

import "time"

// StartAttemptRequest consumes a student link.
type StartAttemptRequest struct {
	QuizID uint   `json:"quizId" binding:"required"`
	Token  string `json:"token" binding:"required"`
}

type AttemptDTO struct {
	ID     uint      `json:"id"`
	EndsAt time.Time `json:"ends_at"`
}

type QuizDTO struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
}

// MaskedQuestionDTO is the client-safe view of one snapshot item. It must
// never carry the correct index.
type MaskedQuestionDTO struct {
	AttemptItemID uint     `json:"attempt_item_id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	Points        int      `json:"points"`
}

type StartAttemptResponse struct {
	Attempt   AttemptDTO          `json:"attempt"`
	Quiz      QuizDTO             `json:"quiz"`
	Questions []MaskedQuestionDTO `json:"questions"`
}

// SubmitRequest carries the selected index per attempt item.
type SubmitRequest struct {
	AttemptID uint         `json:"attemptId" binding:"required"`
	Answers   map[uint]int `json:"answers" binding:"required"`
}

// SubmitDetail is one graded row. Explanation is populated only for
// incorrect items.
type SubmitDetail struct {
	AttemptItemID uint     `json:"attempt_item_id"`
	SelectedIndex *int     `json:"selected_index,omitempty"`
	IsCorrect     bool     `json:"is_correct"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectText   string   `json:"correctText"`
	SelectedText  string   `json:"selectedText"`
	Explanation   *string  `json:"explanation,omitempty"`
}

type SubmitResponse struct {
	Score       int            `json:"score"`
	TotalPoints int            `json:"totalPoints"`
	Details     []SubmitDetail `json:"details"`
}

// ReviewItem is the admin view of one snapshot item with its persisted
// graded answer. Answer fields stay nil until the attempt is submitted.
type ReviewItem struct {
	AttemptItemID uint     `json:"attempt_item_id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correct_index"`
	Points        int      `json:"points"`
	SelectedIndex *int     `json:"selected_index,omitempty"`
	IsCorrect     *bool    `json:"is_correct,omitempty"`
	Explanation   *string  `json:"explanation,omitempty"`
}

// AttemptReviewResponse is the admin-facing attempt detail, unmasked.
type AttemptReviewResponse struct {
	AttemptID    uint         `json:"attempt_id"`
	QuizID       uint         `json:"quiz_id"`
	StudentEmail string       `json:"student_email"`
	Finished     bool         `json:"finished"`
	Score        *int         `json:"score,omitempty"`
	EndsAt       time.Time    `json:"ends_at"`
	Items        []ReviewItem `json:"items"`
}
