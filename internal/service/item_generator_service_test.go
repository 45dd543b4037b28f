package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
)

func newItemGenFixture(llm *fakeLLM) (ItemGeneratorService, *fakeBankRepo, *fakeTopicRepo) {
	bankRepo := &fakeBankRepo{}
	topicRepo := newFakeTopicRepo()
	return NewItemGeneratorService(llm, bankRepo, topicRepo), bankRepo, topicRepo
}

const draftBatchJSON = `[
  {"prompt": "d/dx( x^3 ) = ?", "options": ["x^2", "3x^2", "x^3", "3x"], "correct_index": 1},
  {"prompt": "d/dx( 5x ) = ?", "options": ["5", "x", "5x", "0"], "correct_index": 0},
  {"prompt": "d/dx( 7 ) = ?", "options": ["7", "1", "0", "x"], "correct_index": 2}
]`

func TestGenerateItems(t *testing.T) {
	llm := &fakeLLM{configured: true, response: draftBatchJSON}
	svc, _, _ := newItemGenFixture(llm)

	resp, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{
		TopicSlug: "calculus-derivatives", Difficulty: "easy", N: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if llm.calls != 1 {
		t.Errorf("backend called %d times, want 1", llm.calls)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.Difficulty != "easy" {
			t.Errorf("Difficulty = %q, want requested difficulty filled in", item.Difficulty)
		}
		if len(item.Options) != 4 {
			t.Errorf("item %q has %d options", item.Prompt, len(item.Options))
		}
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", resp.Warnings)
	}
}

func TestGenerateItemsStripsCodeFences(t *testing.T) {
	llm := &fakeLLM{configured: true, response: "```json\n" + draftBatchJSON + "\n```"}
	svc, _, _ := newItemGenFixture(llm)

	resp, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{
		TopicSlug: "calculus-derivatives", N: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 3 {
		t.Errorf("expected 3 items from fenced output, got %d", len(resp.Items))
	}
}

func TestGenerateItemsUnconfiguredBackend(t *testing.T) {
	llm := &fakeLLM{configured: false}
	svc, _, _ := newItemGenFixture(llm)

	_, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{TopicSlug: "calculus-derivatives", N: 3})
	if !apperr.Is(err, apperr.KindUpstreamUnavailable) {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}
	if llm.calls != 0 {
		t.Errorf("backend should not be called when unconfigured, got %d calls", llm.calls)
	}
}

func TestGenerateItemsInvalidJSON(t *testing.T) {
	llm := &fakeLLM{configured: true, response: "Sure! Here are some questions: 1. What is..."}
	svc, _, _ := newItemGenFixture(llm)

	_, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{TopicSlug: "calculus-derivatives", N: 2})
	if !apperr.Is(err, apperr.KindValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}

func TestGenerateItemsRejectsBadStructure(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"three options", `[{"prompt": "p", "options": ["a", "b", "c"], "correct_index": 0}]`},
		{"correct index out of range", `[{"prompt": "p", "options": ["a", "b", "c", "d"], "correct_index": 4}]`},
		{"duplicate options", `[{"prompt": "p", "options": ["a", "b", "a", "d"], "correct_index": 1}]`},
		{"empty prompt", `[{"prompt": " ", "options": ["a", "b", "c", "d"], "correct_index": 0}]`},
		{"catch-all option", `[{"prompt": "p", "options": ["a", "b", "c", "All of the above"], "correct_index": 0}]`},
		{"numeric duplicate of correct", `[{"prompt": "p", "options": ["12", "12.0", "3", "4"], "correct_index": 0}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newItemGenFixture(&fakeLLM{configured: true, response: tt.response})
			_, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{TopicSlug: "calculus-derivatives", N: 1})
			if !apperr.Is(err, apperr.KindValidationFailed) {
				t.Fatalf("expected ValidationFailed, got %v", err)
			}
		})
	}
}

func TestGenerateItemsWarnsOnAnswerClustering(t *testing.T) {
	clustered := `[
  {"prompt": "q1", "options": ["a", "b", "c", "d"], "correct_index": 2},
  {"prompt": "q2", "options": ["e", "f", "g", "h"], "correct_index": 2},
  {"prompt": "q3", "options": ["i", "j", "k", "l"], "correct_index": 2}
]`
	svc, _, _ := newItemGenFixture(&fakeLLM{configured: true, response: clustered})

	resp, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{TopicSlug: "calculus-derivatives", N: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("clustering must not block the batch, got %d items", len(resp.Items))
	}
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "index 2") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a clustering warning, got %v", resp.Warnings)
	}
}

func TestGenerateItemsRejectsBadN(t *testing.T) {
	svc, _, _ := newItemGenFixture(&fakeLLM{configured: true})
	for _, n := range []int{0, -1, generateMaxItems + 1} {
		_, err := svc.GenerateItems(context.Background(), dto.GenerateItemsRequest{TopicSlug: "calculus-derivatives", N: n})
		if !apperr.Is(err, apperr.KindInvalidRequest) {
			t.Errorf("n=%d: expected InvalidRequest, got %v", n, err)
		}
	}
}

func TestSaveItems(t *testing.T) {
	svc, bankRepo, topicRepo := newItemGenFixture(&fakeLLM{})

	resp, err := svc.SaveItems(dto.SaveItemsRequest{
		TopicSlug: "physics-kinematics",
		Items: []dto.DraftItem{
			{Prompt: "v = ?", Options: []string{"d/t", "d*t", "t/d", "d+t"}, CorrectIndex: 0, Difficulty: "h"},
			{Prompt: "a = ?", Options: []string{"dv/dt", "v*t", "v/d", "v+t"}, CorrectIndex: 0, Explanation: strPtr("rate of change of velocity")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Saved != 2 {
		t.Errorf("Saved = %d, want 2", resp.Saved)
	}
	if len(bankRepo.questions) != 2 {
		t.Fatalf("bank holds %d questions, want 2", len(bankRepo.questions))
	}

	topic, err := topicRepo.FindBySlug("physics-kinematics")
	if err != nil {
		t.Fatal("topic should be upserted on first save")
	}
	first := bankRepo.questions[0]
	if first.CreatedBy != "ai-generator" {
		t.Errorf("CreatedBy = %q, want ai-generator", first.CreatedBy)
	}
	if first.TopicID != topic.ID {
		t.Errorf("TopicID = %d, want %d", first.TopicID, topic.ID)
	}
	if first.Difficulty != "hard" {
		t.Errorf("Difficulty = %q, want normalized hard", first.Difficulty)
	}
	second := bankRepo.questions[1]
	if second.Difficulty != "med" {
		t.Errorf("Difficulty = %q, want default med", second.Difficulty)
	}
	if second.Explanation == nil {
		t.Error("explanation should be carried into the bank")
	}
}

func TestSaveItemsRejectsInvalidItem(t *testing.T) {
	svc, bankRepo, _ := newItemGenFixture(&fakeLLM{})

	_, err := svc.SaveItems(dto.SaveItemsRequest{
		TopicSlug: "physics-kinematics",
		Items: []dto.DraftItem{
			{Prompt: "ok", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
			{Prompt: "bad", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	})
	if !apperr.Is(err, apperr.KindValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
	if len(bankRepo.questions) != 0 {
		t.Error("nothing should be persisted when any item is invalid")
	}
}

func TestMathEquivalent(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"12", "12.0", true},
		{"0.5", "0.50001", true},
		{"3x^2", "3x**2", true},
		{"3 x^2", "3x^2", true},
		{"12", "13", false},
		{"x^2", "x^3", false},
	}
	for _, tt := range tests {
		if got := mathEquivalent(tt.a, tt.b); got != tt.want {
			t.Errorf("mathEquivalent(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
