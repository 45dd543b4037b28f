package service

import (
	"testing"

	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
)

func TestUniformSample(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("caps at population size", func(t *testing.T) {
		got := UniformSample(items, 10, random.NewSeeded(1))
		if len(got) != 5 {
			t.Fatalf("expected 5 items, got %d", len(got))
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		for seed := uint64(0); seed < 30; seed++ {
			got := UniformSample(items, 3, random.NewSeeded(seed))
			if len(got) != 3 {
				t.Fatalf("expected 3 items, got %d", len(got))
			}
			seen := map[int]bool{}
			for _, v := range got {
				if seen[v] {
					t.Fatalf("duplicate %d in sample %v", v, got)
				}
				seen[v] = true
			}
		}
	})

	t.Run("zero k", func(t *testing.T) {
		if got := UniformSample(items, 0, random.NewSeeded(1)); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("input unchanged", func(t *testing.T) {
		UniformSample(items, 3, random.NewSeeded(9))
		for i, v := range []int{1, 2, 3, 4, 5} {
			if items[i] != v {
				t.Fatalf("input slice mutated: %v", items)
			}
		}
	})
}

func TestWeightedSample(t *testing.T) {
	t.Run("exhaustion returns fewer", func(t *testing.T) {
		items := []Weighted[string]{{Item: "a", Weight: 1}, {Item: "b", Weight: 2}}
		got := WeightedSample(items, 5, random.NewSeeded(1))
		if len(got) != 2 {
			t.Fatalf("expected 2 items on exhaustion, got %d", len(got))
		}
	})

	t.Run("without replacement", func(t *testing.T) {
		items := []Weighted[int]{
			{Item: 1, Weight: 1}, {Item: 2, Weight: 5}, {Item: 3, Weight: 1}, {Item: 4, Weight: 1},
		}
		for seed := uint64(0); seed < 30; seed++ {
			got := WeightedSample(items, 3, random.NewSeeded(seed))
			if len(got) != 3 {
				t.Fatalf("expected 3 items, got %d", len(got))
			}
			seen := map[int]bool{}
			for _, v := range got {
				if seen[v] {
					t.Fatalf("duplicate %d in %v", v, got)
				}
				seen[v] = true
			}
		}
	})

	t.Run("nonpositive weight counts as one", func(t *testing.T) {
		items := []Weighted[string]{{Item: "a", Weight: 0}, {Item: "b", Weight: -3}}
		got := WeightedSample(items, 2, random.NewSeeded(4))
		if len(got) != 2 {
			t.Fatalf("expected both items despite weights, got %v", got)
		}
	})

	t.Run("heavier item drawn more often", func(t *testing.T) {
		items := []Weighted[string]{{Item: "light", Weight: 1}, {Item: "heavy", Weight: 9}}
		heavyFirst := 0
		for seed := uint64(0); seed < 200; seed++ {
			got := WeightedSample(items, 1, random.NewSeeded(seed))
			if got[0] == "heavy" {
				heavyFirst++
			}
		}
		if heavyFirst < 120 {
			t.Errorf("heavy item drawn first only %d/200 times", heavyFirst)
		}
	})
}

func TestDrawFromPools(t *testing.T) {
	bank := &fakeBankRepo{}
	for i := uint(1); i <= 6; i++ {
		bank.Create(&model.BankQuestion{TopicID: 1, Difficulty: model.DifficultyMed, Prompt: "q", Options: []string{"a", "b"}})
	}
	svc := NewPoolSamplerService(bank)

	t.Run("draws per pool", func(t *testing.T) {
		pools := []model.QuizPool{{ID: 1, TopicID: 1, Difficulty: "med", DrawCount: 4}}
		got, err := svc.DrawFromPools(pools, random.NewSeeded(2))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Fatalf("expected 4 drawn, got %d", len(got))
		}
	})

	t.Run("caps at available", func(t *testing.T) {
		pools := []model.QuizPool{{ID: 1, TopicID: 1, Difficulty: "med", DrawCount: 50}}
		got, err := svc.DrawFromPools(pools, random.NewSeeded(2))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 6 {
			t.Fatalf("expected all 6 available, got %d", len(got))
		}
	})

	t.Run("empty pool contributes zero", func(t *testing.T) {
		pools := []model.QuizPool{
			{ID: 1, TopicID: 1, Difficulty: "med", DrawCount: 2},
			{ID: 2, TopicID: 99, Difficulty: "hard", DrawCount: 5},
		}
		got, err := svc.DrawFromPools(pools, random.NewSeeded(2))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 from the non-empty pool only, got %d", len(got))
		}
	})

	t.Run("difficulty is normalized", func(t *testing.T) {
		pools := []model.QuizPool{{ID: 1, TopicID: 1, Difficulty: "", DrawCount: 1}}
		got, err := svc.DrawFromPools(pools, random.NewSeeded(2))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("expected blank difficulty to match med, got %d items", len(got))
		}
	})
}
