package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	generateMaxItems = 20
	draftOptionCount = 4
)

// ItemGeneratorService drafts bank questions with the generative backend and
// persists them after admin review. Generation never writes to the bank;
// only an explicit save does, and both sides run the same item validation.
type ItemGeneratorService interface {
	GenerateItems(ctx context.Context, req dto.GenerateItemsRequest) (*dto.GenerateItemsResponse, error)
	SaveItems(req dto.SaveItemsRequest) (*dto.SaveItemsResponse, error)
}

type itemGeneratorService struct {
	llm       LLMService
	bankRepo  repository.BankQuestionRepository
	topicRepo repository.TopicRepository
}

func NewItemGeneratorService(
	llm LLMService,
	bankRepo repository.BankQuestionRepository,
	topicRepo repository.TopicRepository,
) ItemGeneratorService {
	return &itemGeneratorService{llm: llm, bankRepo: bankRepo, topicRepo: topicRepo}
}

const generateItemsSystemPrompt = `You are an expert STEM tutor and item-writer. Produce high-quality multiple-choice questions for high school/early college level.

Requirements:
- Output STRICT JSON ONLY: an array of items. No commentary.
- Each item has: prompt (string), options (array of 4 concise strings), correct_index (0-3), teks_code (optional, string), explanation (optional, string).
- Keep prompts short and unambiguous. Avoid trick questions.
- Provide strong distractors (common misconceptions), not random noise.
- Adhere to the requested topic, TEKS tags, and difficulty.
- Avoid duplicate options; do not include "All of the above" or "None of the above".
- Use ASCII math or simple Unicode; no LaTeX.

Example:
[
  {
    "prompt": "d/dx( x^3 ) = ?",
    "options": ["x^2", "3x^2", "x^3", "3x"],
    "correct_index": 1,
    "teks_code": "A.1"
  }
]`

func (s *itemGeneratorService) GenerateItems(ctx context.Context, req dto.GenerateItemsRequest) (*dto.GenerateItemsResponse, error) {
	if req.N < 1 || req.N > generateMaxItems {
		return nil, apperr.Newf(apperr.KindInvalidRequest, "n must be between 1 and %d", generateMaxItems)
	}
	if !s.llm.Configured() {
		return nil, apperr.New(apperr.KindUpstreamUnavailable, "generative backend not configured")
	}

	difficulty := NormalizeDifficulty(req.Difficulty)
	user := fmt.Sprintf("Topic: %s; Difficulty: %s", req.TopicSlug, difficulty)
	if len(req.TeksCodes) > 0 {
		user += "; TEKS: " + strings.Join(req.TeksCodes, ", ")
	}
	if req.Style != "" {
		user += "; Style: " + req.Style
	}
	user += fmt.Sprintf("\nGenerate n=%d items.", req.N)

	raw, err := s.llm.Complete(ctx, generateItemsSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var items []dto.DraftItem
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &items); err != nil {
		log.Warn().Err(err).Str("topic", req.TopicSlug).Msg("GenerateItems: model returned unparseable output")
		return nil, apperr.Wrap(apperr.KindValidationFailed, "model returned invalid JSON", err)
	}
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "model returned no items")
	}

	var errs []string
	for i := range items {
		if items[i].Difficulty == "" {
			items[i].Difficulty = difficulty
		}
		errs = append(errs, validateDraftItem(i, items[i])...)
	}
	if len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "generated items failed validation").WithDetails(errs...)
	}

	warnings := draftBatchWarnings(items)
	for _, w := range warnings {
		log.Warn().Str("topic", req.TopicSlug).Msg("GenerateItems: " + w)
	}

	log.Info().Str("topic", req.TopicSlug).Int("items", len(items)).Msg("Draft items generated")
	return &dto.GenerateItemsResponse{Items: items, Warnings: warnings}, nil
}

func (s *itemGeneratorService) SaveItems(req dto.SaveItemsRequest) (*dto.SaveItemsResponse, error) {
	var errs []string
	for i, item := range req.Items {
		errs = append(errs, validateDraftItem(i, item)...)
	}
	if len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "item validation failed").WithDetails(errs...)
	}

	topic, err := upsertTopicBySlug(s.topicRepo, req.TopicSlug)
	if err != nil {
		return nil, err
	}

	bankItems := make([]model.BankQuestion, len(req.Items))
	for i, item := range req.Items {
		bankItems[i] = model.BankQuestion{
			TopicID:      topic.ID,
			Prompt:       item.Prompt,
			Options:      item.Options,
			CorrectIndex: item.CorrectIndex,
			Difficulty:   NormalizeDifficulty(item.Difficulty),
			TeksCode:     item.TeksCode,
			Explanation:  item.Explanation,
			CreatedBy:    "ai-generator",
		}
	}
	if err := s.bankRepo.CreateBatch(bankItems); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not insert bank questions", err)
	}

	log.Info().Str("topic", topic.Slug).Int("saved", len(bankItems)).Msg("Draft items saved to bank")
	return &dto.SaveItemsResponse{Saved: len(bankItems)}, nil
}

var bannedOptionRe = regexp.MustCompile(`(?i)^(all|none) of the above$`)

// validateDraftItem returns the structural problems with one draft item,
// prefixed with its position so a batch error pinpoints the offender.
func validateDraftItem(i int, item dto.DraftItem) []string {
	var errs []string
	tag := fmt.Sprintf("item %d", i+1)

	if strings.TrimSpace(item.Prompt) == "" {
		errs = append(errs, tag+": empty prompt")
	}
	if len(item.Options) != draftOptionCount {
		errs = append(errs, fmt.Sprintf("%s: expected %d options, got %d", tag, draftOptionCount, len(item.Options)))
		return errs
	}
	for j, opt := range item.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, fmt.Sprintf("%s: option %d is empty", tag, j+1))
		}
		if bannedOptionRe.MatchString(strings.TrimSpace(opt)) {
			errs = append(errs, fmt.Sprintf("%s: option %d is a catch-all choice", tag, j+1))
		}
	}
	if len(dedupeOptions(item.Options)) != draftOptionCount {
		errs = append(errs, tag+": duplicate options")
	}
	if item.CorrectIndex < 0 || item.CorrectIndex >= draftOptionCount {
		errs = append(errs, fmt.Sprintf("%s: correct_index %d out of range", tag, item.CorrectIndex))
		return errs
	}
	correct := item.Options[item.CorrectIndex]
	for j, opt := range item.Options {
		if j != item.CorrectIndex && mathEquivalent(opt, correct) {
			errs = append(errs, fmt.Sprintf("%s: option %d is equivalent to the correct answer", tag, j+1))
		}
	}
	return errs
}

// draftBatchWarnings surfaces advisory problems that do not block the batch:
// the correct answer clustering on one position and content flags.
func draftBatchWarnings(items []dto.DraftItem) []string {
	var warnings []string

	if len(items) >= 3 {
		clustered := true
		for _, item := range items[1:] {
			if item.CorrectIndex != items[0].CorrectIndex {
				clustered = false
				break
			}
		}
		if clustered {
			warnings = append(warnings, fmt.Sprintf("every correct answer sits at index %d", items[0].CorrectIndex))
		}
	}

	for i, item := range items {
		text := item.Prompt + " " + strings.Join(item.Options, " ")
		for _, issue := range contentSafetyLint(text) {
			warnings = append(warnings, fmt.Sprintf("item %d: %s", i+1, issue))
		}
	}
	return warnings
}

// stripCodeFences unwraps a markdown-fenced response. Models often wrap JSON
// in ```json fences despite instructions not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// dedupeOptions drops case-insensitive duplicates, keeping first occurrences
// in order.
func dedupeOptions(options []string) []string {
	seen := make(map[string]bool, len(options))
	out := make([]string, 0, len(options))
	for _, opt := range options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, opt)
	}
	return out
}

var safetyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(password|secret|token|key)\b`),
	regexp.MustCompile(`(?i)\b(kill|die|death|suicide)\b`),
	regexp.MustCompile(`(?i)\b(hate|racist|sexist)\b`),
}

// contentSafetyLint flags text that likely needs a human look before it
// reaches students. Advisory only.
func contentSafetyLint(text string) []string {
	var issues []string
	for _, pattern := range safetyPatterns {
		if pattern.MatchString(text) {
			issues = append(issues, "content may need review, matched "+pattern.String())
		}
	}
	return issues
}

// mathEquivalent reports whether two option strings express the same answer:
// numerically within a small tolerance, or textually after normalizing
// whitespace and exponent notation.
func mathEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	na, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	nb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		return math.Abs(na-nb) < 1e-4
	}
	normalize := func(s string) string {
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, "\t", "")
		return strings.ReplaceAll(s, "**", "^")
	}
	return normalize(a) == normalize(b)
}
