package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lmorrow/quizforge/internal/random"
)

func assertDistractorContract(t *testing.T, correct string, distractors []string) {
	t.Helper()
	if len(distractors) != DistractorCount {
		t.Fatalf("expected %d distractors, got %d: %v", DistractorCount, len(distractors), distractors)
	}
	seen := map[string]bool{}
	for _, d := range distractors {
		if d == correct {
			t.Errorf("distractor equals the correct answer: %q", d)
		}
		if d == "" {
			t.Error("empty distractor")
		}
		if seen[d] {
			t.Errorf("duplicate distractor %q", d)
		}
		seen[d] = true
	}
}

func TestMakeDistractorsPowerRule(t *testing.T) {
	svc := NewDistractorService(&fakeLLM{})
	distractors := svc.MakeDistractors(context.Background(), DistractorInput{
		Topic:   "calculus",
		Correct: "12",
		Values:  map[string]interface{}{"n": 4, "a": 3},
	})
	assertDistractorContract(t, "12", distractors)

	want := map[string]bool{"3·x^{2}": true, "x^{3}": true}
	found := 0
	for _, d := range distractors {
		if want[d] {
			found++
		}
	}
	if found == 0 {
		t.Errorf("expected a power-rule off-by-one distractor, got %v", distractors)
	}
}

func TestMakeDistractorsNoRulesNoBackend(t *testing.T) {
	svc := NewDistractorService(&fakeLLM{})
	distractors := svc.MakeDistractors(context.Background(), DistractorInput{
		Topic:   "history",
		Correct: "1776",
	})
	assertDistractorContract(t, "1776", distractors)
}

func TestMakeDistractorsNonNumericCorrect(t *testing.T) {
	svc := NewDistractorService(&fakeLLM{})
	distractors := svc.MakeDistractors(context.Background(), DistractorInput{
		Topic:   "biology",
		Correct: "mitochondria",
	})
	assertDistractorContract(t, "mitochondria", distractors)
}

func TestMakeDistractorsZeroCorrect(t *testing.T) {
	// 0×2 and 0÷2 collide with the correct answer; the fill must still
	// produce three distinct distractors.
	svc := NewDistractorService(&fakeLLM{})
	distractors := svc.MakeDistractors(context.Background(), DistractorInput{
		Topic:   "algebra",
		Correct: "0",
	})
	assertDistractorContract(t, "0", distractors)
}

func TestMakeDistractorsUsesBackendWhenConfigured(t *testing.T) {
	llm := &fakeLLM{configured: true, response: "wrong one\nwrong two\nwrong three"}
	svc := NewDistractorService(llm)
	distractors := svc.MakeDistractors(context.Background(), DistractorInput{
		Topic:   "history",
		Correct: "1776",
	})
	assertDistractorContract(t, "1776", distractors)
	if llm.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", llm.calls)
	}
	if distractors[0] != "wrong one" {
		t.Errorf("expected backend distractors first, got %v", distractors)
	}
}

func TestMakeDistractorsBackendFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{configured: true, err: errors.New("upstream down")}
	svc := NewDistractorService(llm)
	distractors := svc.MakeDistractors(context.Background(), DistractorInput{
		Topic:   "history",
		Correct: "1776",
	})
	assertDistractorContract(t, "1776", distractors)
}

func TestToOptions(t *testing.T) {
	svc := NewDistractorService(&fakeLLM{})
	correct := "42"
	distractors := []string{"41", "43", "84"}

	for seed := uint64(0); seed < 20; seed++ {
		options, correctIndex := svc.ToOptions(correct, distractors, random.NewSeeded(seed))
		if len(options) != 4 {
			t.Fatalf("expected 4 options, got %d", len(options))
		}
		if options[correctIndex] != correct {
			t.Fatalf("options[%d] = %q, want %q", correctIndex, options[correctIndex], correct)
		}
		want := map[string]bool{"42": true, "41": true, "43": true, "84": true}
		for _, opt := range options {
			if !want[opt] {
				t.Fatalf("unexpected option %q", opt)
			}
			delete(want, opt)
		}
	}
}

func TestToOptionsCorrectIndexVaries(t *testing.T) {
	svc := NewDistractorService(&fakeLLM{})
	positions := map[int]bool{}
	for seed := uint64(0); seed < 50; seed++ {
		_, idx := svc.ToOptions("x", []string{"a", "b", "c"}, random.NewSeeded(seed))
		positions[idx] = true
	}
	if len(positions) < 3 {
		t.Errorf("correct index should vary across shuffles, saw positions %v", positions)
	}
}
