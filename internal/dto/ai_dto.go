package dto

// DraftItem is one model-produced multiple-choice item. Drafts live only in
// the admin's hands until an explicit save persists them into the bank.
type DraftItem struct {
	Prompt       string   `json:"prompt" binding:"required"`
	Options      []string `json:"options" binding:"required"`
	CorrectIndex int      `json:"correct_index"`
	Difficulty   string   `json:"difficulty,omitempty"`
	TeksCode     *string  `json:"teks_code,omitempty"`
	Explanation  *string  `json:"explanation,omitempty"`
}

// GenerateItemsRequest asks the generative backend for n draft items on a
// topic.
type GenerateItemsRequest struct {
	TopicSlug  string   `json:"topic_slug" binding:"required"`
	Difficulty string   `json:"difficulty"`
	N          int      `json:"n" binding:"required"`
	Style      string   `json:"style"`
	TeksCodes  []string `json:"teks_codes"`
}

// GenerateItemsResponse carries the validated drafts plus advisory warnings
// (answer clustering, content flags) that do not block the batch.
type GenerateItemsResponse struct {
	Items    []DraftItem `json:"items"`
	Warnings []string    `json:"warnings,omitempty"`
}

// SaveItemsRequest persists reviewed draft items into the bank under a topic.
type SaveItemsRequest struct {
	TopicSlug string      `json:"topic_slug" binding:"required"`
	Items     []DraftItem `json:"items" binding:"required,min=1,dive"`
}

type SaveItemsResponse struct {
	Saved int `json:"saved"`
}
