package service

import (
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
)

// PoolSamplerService resolves a quiz's pool rules into concrete bank
// questions at attempt-creation time.
type PoolSamplerService interface {
	// DrawFromPools draws min(draw_count, available) questions per pool,
	// uniformly without replacement, and concatenates across pools. A pool
	// with no matching bank questions contributes zero items; that is never
	// an error here.
	DrawFromPools(pools []model.QuizPool, rng random.Rand) ([]model.BankQuestion, error)
}

type poolSamplerService struct {
	bankRepo repository.BankQuestionRepository
}

func NewPoolSamplerService(bankRepo repository.BankQuestionRepository) PoolSamplerService {
	return &poolSamplerService{bankRepo: bankRepo}
}

func (s *poolSamplerService) DrawFromPools(pools []model.QuizPool, rng random.Rand) ([]model.BankQuestion, error) {
	var drawn []model.BankQuestion
	for _, pool := range pools {
		difficulty := NormalizeDifficulty(pool.Difficulty)
		candidates, err := s.bankRepo.FindByTopicAndDifficulty(pool.TopicID, difficulty)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			log.Warn().Uint("poolID", pool.ID).Uint("topicID", pool.TopicID).Str("difficulty", difficulty).
				Msg("Pool has no matching bank questions, contributing zero items")
			continue
		}
		drawn = append(drawn, UniformSample(candidates, pool.DrawCount, rng)...)
	}
	return drawn, nil
}

// UniformSample selects min(k, len(items)) items uniformly at random
// without replacement via a partial Fisher-Yates pass.
func UniformSample[T any](items []T, k int, rng random.Rand) []T {
	n := len(items)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	pool := make([]T, n)
	copy(pool, items)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Weighted is an item with an optional sampling weight; weights at or below
// zero count as the default 1.
type Weighted[T any] struct {
	Item   T
	Weight float64
}

// WeightedSample repeatedly picks one remaining item with probability
// proportional to its weight, removing it, until k items are chosen or the
// pool is exhausted. It returns fewer than k when the pool is smaller.
func WeightedSample[T any](items []Weighted[T], k int, rng random.Rand) []T {
	pool := make([]Weighted[T], len(items))
	copy(pool, items)

	var out []T
	for len(out) < k && len(pool) > 0 {
		total := 0.0
		for _, it := range pool {
			total += weightOf(it.Weight)
		}
		r := rng.Float64() * total
		idx := 0
		for ; idx < len(pool); idx++ {
			r -= weightOf(pool[idx].Weight)
			if r <= 0 {
				break
			}
		}
		if idx == len(pool) {
			idx = len(pool) - 1
		}
		out = append(out, pool[idx].Item)
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}

func weightOf(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}
