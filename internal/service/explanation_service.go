package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Fallback strings when the generative backend cannot help. Submission
// still succeeds; students just get a placeholder instead of a walkthrough.
const (
	explanationFallbackUnconfigured = "Explanation unavailable right now. (AI backend not configured.)"
	explanationFallbackError        = "Explanation unavailable right now. We'll add a walkthrough after class."
)

// WrongItem is one incorrectly answered snapshot item handed to the
// explainer after grading, when the attempt is already closed.
type WrongItem struct {
	Prompt       string
	Options      []string
	SelectedText string
	CorrectText  string
}

// ExplanationService turns the wrong-answer subset of a graded attempt into
// one explanation per item. One batch call covers the whole subset; backend
// absence and failure both degrade to fixed fallback strings.
type ExplanationService interface {
	ExplainMistakes(ctx context.Context, quizTitle string, items []WrongItem) []string
}

type explanationService struct {
	llm LLMService
}

func NewExplanationService(llm LLMService) ExplanationService {
	return &explanationService{llm: llm}
}

var qMarkerRe = regexp.MustCompile(`\n\s*[Qq]\d+[:.]`)

func (s *explanationService) ExplainMistakes(ctx context.Context, quizTitle string, items []WrongItem) []string {
	if len(items) == 0 {
		return nil
	}

	if s.llm == nil || !s.llm.Configured() {
		return repeated(explanationFallbackUnconfigured, len(items))
	}

	var lines []string
	for i, it := range items {
		lines = append(lines, fmt.Sprintf("Q%d: %s\nOptions: %s\nStudent selected: %s\nCorrect answer: %s",
			i+1, it.Prompt, strings.Join(it.Options, " | "), it.SelectedText, it.CorrectText))
	}

	system := "You are a calm tutor. Explain in short, numbered steps. Use plain language and show formulas when helpful."
	user := fmt.Sprintf("Quiz: %s. For each item below, explain why the correct answer is correct and what concept the student likely missed. Keep each explanation under 120 words. Answer each item starting with its Q marker (Q1:, Q2:, ...).\n\n%s",
		quizTitle, strings.Join(lines, "\n\n"))

	text, err := s.llm.Complete(ctx, system, user)
	if err != nil {
		log.Error().Err(err).Int("items", len(items)).Msg("Explanation generation failed, using fallback")
		return repeated(explanationFallbackError, len(items))
	}

	parts := splitByQMarkers(text)
	if len(parts) != len(items) {
		// Could not line the response up item by item; reuse the whole text.
		if strings.TrimSpace(text) == "" {
			return repeated(explanationFallbackError, len(items))
		}
		return repeated(strings.TrimSpace(text), len(items))
	}
	return parts
}

func splitByQMarkers(text string) []string {
	parts := qMarkerRe.Split("\n"+text, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func repeated(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
