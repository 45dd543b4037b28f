package dto

import "encoding/json"

type ErrorResponse struct {
	Message string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// OptionList accepts the two historical wire shapes for answer options,
// a bare array and an object wrapping one, and normalizes both to a plain
// string slice at the ingestion boundary. Everything downstream assumes the
// canonical form.
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		*o = plain
		return nil
	}
	var wrapped struct {
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*o = wrapped.Options
	return nil
}
