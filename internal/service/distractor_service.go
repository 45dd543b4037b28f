package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lmorrow/quizforge/internal/random"
	"github.com/rs/zerolog/log"
)

// DistractorCount is the contract: exactly three distinct wrong options per
// question, so ToOptions always yields four choices.
const DistractorCount = 3

// DistractorInput describes the question a distractor set is built for.
type DistractorInput struct {
	Topic      string
	Difficulty string
	Correct    string
	Values     map[string]interface{}
	Prompt     string
}

// DistractorService synthesizes plausible wrong answers: a rule-based pass
// encoding common misconceptions, an optional generative top-up, and a
// deterministic fill. It never fails the calling operation.
type DistractorService interface {
	MakeDistractors(ctx context.Context, in DistractorInput) []string
	ToOptions(correct string, distractors []string, rng random.Rand) (options []string, correctIndex int)
}

type distractorService struct {
	llm LLMService
}

func NewDistractorService(llm LLMService) DistractorService {
	return &distractorService{llm: llm}
}

func (s *distractorService) MakeDistractors(ctx context.Context, in DistractorInput) []string {
	var distractors []string

	topic := strings.ToLower(in.Topic)
	if strings.Contains(topic, "calc") || strings.Contains(topic, "math") {
		distractors = append(distractors, mathDistractors(in.Correct, in.Values)...)
	}

	if len(distractors) < DistractorCount && s.llm != nil && s.llm.Configured() {
		generated, err := s.generateDistractors(ctx, in)
		if err != nil {
			log.Error().Err(err).Str("topic", in.Topic).Msg("AI distractor generation failed, continuing with deterministic fill")
		} else {
			distractors = append(distractors, generated...)
		}
	}

	// Deterministic fill so the contract holds even with no rules and no backend.
	deduped := dedupe(in.Correct, distractors)
	for i := 0; len(deduped) < DistractorCount && i < 4; i++ {
		deduped = dedupe(in.Correct, append(deduped, basicVariation(in.Correct, i)))
	}
	// Variations cycle and can collide; pad with indexed placeholders.
	for n := 1; len(deduped) < DistractorCount; n++ {
		deduped = dedupe(in.Correct, append(deduped, fmt.Sprintf("Option %d", n)))
	}

	return deduped[:DistractorCount]
}

// mathDistractors encodes common student errors rather than noise: power
// rule off-by-one when an exponent-like variable is present, sign flips,
// and a missing-coefficient division error.
func mathDistractors(correct string, values map[string]interface{}) []string {
	var distractors []string
	numeric, isNumeric := parseNumeric(correct)

	if n, ok := numericValue(values["n"]); ok {
		distractors = append(distractors,
			fmt.Sprintf("%s·x^{%s}", FormatValue(n-1), FormatValue(n-2)),
			fmt.Sprintf("x^{%s}", FormatValue(n-1)))
	}

	if isNumeric {
		if numeric != 0 {
			distractors = append(distractors, FormatValue(-numeric))
		}
		if a, ok := numericValue(values["a"]); ok && a != 1 && a != 0 {
			distractors = append(distractors, FormatValue(numeric/a))
		}
		if numeric == 0.5 {
			distractors = append(distractors, "1/√x", "2√x")
		}
	}

	out := distractors[:0]
	for _, d := range distractors {
		if d != correct {
			out = append(out, d)
		}
	}
	return out
}

func (s *distractorService) generateDistractors(ctx context.Context, in DistractorInput) ([]string, error) {
	system := "You generate plausible but incorrect multiple-choice options that reflect common student mistakes."
	user := fmt.Sprintf(`Generate 3 plausible but incorrect answers for this %s question:

Question: %s
Correct answer: %s
Difficulty: %s

Requirements:
- Each distractor should be concise (under 15 words)
- Represent common student mistakes
- Be mathematically or conceptually related
- Avoid the correct answer

Return only the 3 distractors, one per line.`, in.Topic, in.Prompt, in.Correct, in.Difficulty)

	text, err := s.llm.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && line != in.Correct {
			out = append(out, line)
		}
		if len(out) == DistractorCount {
			break
		}
	}
	return out, nil
}

// basicVariation cycles ×2, ÷2, +1, −1 for numeric answers and falls back
// to indexed placeholders otherwise.
func basicVariation(correct string, index int) string {
	if numeric, ok := parseNumeric(correct); ok {
		switch index % 4 {
		case 0:
			return FormatValue(numeric * 2)
		case 1:
			return FormatValue(numeric / 2)
		case 2:
			return FormatValue(numeric + 1)
		default:
			return FormatValue(numeric - 1)
		}
	}
	return fmt.Sprintf("Option %d", index+1)
}

// dedupe drops the correct answer and exact duplicates, preserving order.
func dedupe(correct string, distractors []string) []string {
	seen := map[string]bool{correct: true}
	var out []string
	for _, d := range distractors {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// ToOptions shuffles the correct answer in with exactly three distractors
// and reports where it landed. options[correctIndex] == correct always.
func (s *distractorService) ToOptions(correct string, distractors []string, rng random.Rand) ([]string, int) {
	options := make([]string, 0, DistractorCount+1)
	options = append(options, correct)
	options = append(options, distractors[:DistractorCount]...)

	random.Shuffle(rng, options)

	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}
	return options, correctIndex
}

func parseNumeric(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func numericValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	case string:
		return parseNumeric(t)
	default:
		return 0, false
	}
}
