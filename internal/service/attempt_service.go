package service

import (
	"errors"
	"time"

	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService validates a student link and materializes one attempt:
// link check, quota check, attempt creation with a deadline, snapshotting
// the question set, and returning an answer-key-free view.
type AttemptService interface {
	StartAttempt(quizID uint, token string) (*dto.StartAttemptResponse, error)
}

type attemptService struct {
	linkRepo    repository.StudentLinkRepository
	quizRepo    repository.QuizRepository
	poolRepo    repository.PoolRepository
	attemptRepo repository.AttemptRepository
	sampler     PoolSamplerService
	now         func() time.Time
	newRng      func() random.Rand
}

func NewAttemptService(
	linkRepo repository.StudentLinkRepository,
	quizRepo repository.QuizRepository,
	poolRepo repository.PoolRepository,
	attemptRepo repository.AttemptRepository,
	sampler PoolSamplerService,
) AttemptService {
	return &attemptService{
		linkRepo:    linkRepo,
		quizRepo:    quizRepo,
		poolRepo:    poolRepo,
		attemptRepo: attemptRepo,
		sampler:     sampler,
		now:         time.Now,
		newRng:      random.New,
	}
}

// errInvalidLink is the single user-visible message for both unknown tokens
// and expired links, so the response does not reveal which tokens exist.
func errInvalidLink() error {
	return apperr.New(apperr.KindNotFound, "invalid or expired link")
}

func (s *attemptService) StartAttempt(quizID uint, token string) (*dto.StartAttemptResponse, error) {
	if quizID == 0 || token == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "quizId and token are required")
	}

	link, err := s.linkRepo.FindByQuizAndToken(quizID, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Uint("quizID", quizID).Msg("StartAttempt: no link for token")
			return nil, errInvalidLink()
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not resolve link", err)
	}

	now := s.now()
	if link.ExpiresAt.Before(now) {
		log.Info().Uint("linkID", link.ID).Time("expiresAt", link.ExpiresAt).Msg("StartAttempt: link expired")
		return nil, errInvalidLink()
	}

	// Early quota read for a fast, friendly rejection. The authoritative
	// check is re-run inside CreateUnderQuota with the link row locked.
	count, err := s.attemptRepo.CountByQuizAndEmail(link.QuizID, link.StudentEmail)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not count attempts", err)
	}
	if count >= int64(link.MaxAttempts) {
		return nil, apperr.New(apperr.KindConflict, "attempt limit reached")
	}

	quiz := link.Quiz
	if quiz.ID == 0 {
		loaded, err := s.quizRepo.FindByID(link.QuizID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindNotFound, "quiz not found", err)
		}
		quiz = *loaded
	}

	rng := s.newRng()
	items, err := s.buildQuestionSet(quiz, rng)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "quiz has no questions")
	}

	attempt := model.Attempt{
		QuizID:       quiz.ID,
		StudentEmail: link.StudentEmail,
		EndsAt:       now.Add(time.Duration(quiz.DurationSeconds) * time.Second),
		Items:        items,
	}
	// Attempt row and its snapshot items are inserted all-or-nothing, with
	// the quota re-checked under a link-row lock.
	if err := s.attemptRepo.CreateUnderQuota(link, &attempt); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create attempt", err)
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("quizID", quiz.ID).Str("student", link.StudentEmail).
		Int("items", len(attempt.Items)).Time("endsAt", attempt.EndsAt).Msg("Attempt created")

	// Presentation-order shuffle only; stored item identity is unaffected.
	masked := make([]dto.MaskedQuestionDTO, len(attempt.Items))
	for i, item := range attempt.Items {
		masked[i] = dto.MaskedQuestionDTO{
			AttemptItemID: item.ID,
			Prompt:        item.Prompt,
			Options:       item.Options,
			Points:        item.Points,
		}
	}
	random.Shuffle(rng, masked)

	return &dto.StartAttemptResponse{
		Attempt:   dto.AttemptDTO{ID: attempt.ID, EndsAt: attempt.EndsAt},
		Quiz:      dto.QuizDTO{ID: quiz.ID, Title: quiz.Title, DurationSeconds: quiz.DurationSeconds},
		Questions: masked,
	}, nil
}

// buildQuestionSet prefers pools; the static question list is used only
// when the quiz has no pools or the pools produce nothing.
func (s *attemptService) buildQuestionSet(quiz model.Quiz, rng random.Rand) ([]model.AttemptItem, error) {
	pools, err := s.poolRepo.FindByQuizID(quiz.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load pools", err)
	}

	if len(pools) > 0 {
		drawn, err := s.sampler.DrawFromPools(pools, rng)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "pool sampling failed", err)
		}
		if len(drawn) > 0 {
			items := make([]model.AttemptItem, len(drawn))
			for i, bq := range drawn {
				bankID := bq.ID
				items[i] = model.AttemptItem{
					Source:       model.ItemSourceBank,
					BankItemID:   &bankID,
					Prompt:       bq.Prompt,
					Options:      bq.Options,
					CorrectIndex: bq.CorrectIndex,
					Points:       1,
				}
			}
			return items, nil
		}
	}

	loaded, err := s.quizRepo.FindByIDWithQuestions(quiz.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load questions", err)
	}
	items := make([]model.AttemptItem, len(loaded.Questions))
	for i, q := range loaded.Questions {
		questionID := q.ID
		points := q.Points
		if points <= 0 {
			points = 1
		}
		items[i] = model.AttemptItem{
			Source:       model.ItemSourceStatic,
			QuestionID:   &questionID,
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Points:       points,
		}
	}
	return items, nil
}
