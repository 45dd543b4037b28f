package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/lmorrow/quizforge/config"
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// LLMService is the generative-text collaborator. Absence of a configured
// backend (Configured() == false) is distinguishable from a transient
// failure (Complete returning an error); callers degrade to deterministic
// fallbacks in both cases and never propagate either to students.
type LLMService interface {
	Configured() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const completeTimeout = 20 * time.Second

type geminiLLMService struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

// NewGeminiLLMService builds the Gemini-backed LLMService. Without an API
// key the service stays non-functional but constructible, so composition
// never fails on a missing credential.
func NewGeminiLLMService(cfg *config.Config) (LLMService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. LLM-backed features will use deterministic fallbacks.")
		return &geminiLLMService{cfg: cfg, client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel("gemini-1.5-flash")
	return &geminiLLMService{client: model, cfg: cfg}, nil
}

func (s *geminiLLMService) Configured() bool {
	return s.client != nil
}

func (s *geminiLLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.client == nil {
		return "", apperr.New(apperr.KindUpstreamUnavailable, "generative backend not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, completeTimeout)
	defer cancel()

	parts := []genai.Part{genai.Text(systemPrompt + "\n\n" + userPrompt)}
	resp, err := s.client.GenerateContent(ctx, parts...)
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error")
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "generative backend error", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("Gemini returned no candidates or parts in response.")
		return "", apperr.New(apperr.KindUpstreamUnavailable, "generative backend returned no content")
	}

	fullResponseText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullResponseText += string(txt)
		}
	}
	if fullResponseText == "" {
		return "", apperr.New(apperr.KindUpstreamUnavailable, "generative backend returned no text content")
	}
	return fullResponseText, nil
}
