package service

import (
	"context"
	"errors"
	"time"

	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GradingService scores a submission against the attempt's frozen snapshot.
// Grading is exactly-once per attempt and never re-reads the live bank or
// question tables.
type GradingService interface {
	Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponse, error)
	Review(attemptID uint) (*dto.AttemptReviewResponse, error)
}

type gradingService struct {
	attemptRepo repository.AttemptRepository
	itemRepo    repository.AttemptItemRepository
	answerRepo  repository.AnswerRepository
	quizRepo    repository.QuizRepository
	explainer   ExplanationService
	now         func() time.Time
}

func NewGradingService(
	attemptRepo repository.AttemptRepository,
	itemRepo repository.AttemptItemRepository,
	answerRepo repository.AnswerRepository,
	quizRepo repository.QuizRepository,
	explainer ExplanationService,
) GradingService {
	return &gradingService{
		attemptRepo: attemptRepo,
		itemRepo:    itemRepo,
		answerRepo:  answerRepo,
		quizRepo:    quizRepo,
		explainer:   explainer,
		now:         time.Now,
	}
}

func (s *gradingService) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponse, error) {
	attempt, err := s.attemptRepo.FindByID(req.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "attempt not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load attempt", err)
	}
	if attempt.Finished {
		return nil, apperr.New(apperr.KindConflict, "attempt already submitted")
	}
	if s.now().After(attempt.EndsAt) {
		return nil, apperr.New(apperr.KindExpired, "attempt deadline passed")
	}

	items, err := s.itemRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load attempt items", err)
	}
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "attempt has no items")
	}

	score, totalPoints := 0, 0
	details := make([]dto.SubmitDetail, len(items))
	answers := make([]model.Answer, len(items))
	var wrong []WrongItem
	var wrongIdx []int

	for i, item := range items {
		totalPoints += item.Points

		selected, answered := req.Answers[item.ID]
		isCorrect := answered && selected == item.CorrectIndex
		if isCorrect {
			score += item.Points
		}

		detail := dto.SubmitDetail{
			AttemptItemID: item.ID,
			IsCorrect:     isCorrect,
			Prompt:        item.Prompt,
			Options:       item.Options,
			CorrectText:   optionText(item.Options, item.CorrectIndex),
		}
		answer := model.Answer{
			AttemptID:     attempt.ID,
			AttemptItemID: item.ID,
			IsCorrect:     isCorrect,
		}
		if answered {
			sel := selected
			detail.SelectedIndex = &sel
			detail.SelectedText = optionText(item.Options, selected)
			answer.SelectedIndex = &sel
		} else {
			detail.SelectedText = "(no answer)"
		}

		details[i] = detail
		answers[i] = answer

		if !isCorrect {
			wrong = append(wrong, WrongItem{
				Prompt:       item.Prompt,
				Options:      item.Options,
				SelectedText: detail.SelectedText,
				CorrectText:  detail.CorrectText,
			})
			wrongIdx = append(wrongIdx, i)
		}
	}

	// One batch call for all wrong items; the explainer degrades internally
	// and never fails the submission.
	if len(wrong) > 0 {
		quizTitle := ""
		if quiz, qErr := s.quizRepo.FindByID(attempt.QuizID); qErr == nil {
			quizTitle = quiz.Title
		}
		explanations := s.explainer.ExplainMistakes(ctx, quizTitle, wrong)
		for j, i := range wrongIdx {
			exp := explanations[j]
			details[i].Explanation = &exp
			answers[i].Explanation = &exp
		}
	}

	// Answers and the finished flag commit as one unit; a concurrent second
	// submit loses the finished=false guard and observes Conflict.
	if err := s.attemptRepo.Finish(attempt.ID, score, answers); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not persist grading", err)
	}

	log.Info().Uint("attemptID", attempt.ID).Int("score", score).Int("totalPoints", totalPoints).
		Int("wrong", len(wrong)).Msg("Attempt graded")

	return &dto.SubmitResponse{Score: score, TotalPoints: totalPoints, Details: details}, nil
}

// Review returns the unmasked attempt detail for an admin: the frozen
// snapshot joined with the persisted graded answers. Answer fields are
// absent while the attempt is still open.
func (s *gradingService) Review(attemptID uint) (*dto.AttemptReviewResponse, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "attempt not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load attempt", err)
	}

	items, err := s.itemRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load attempt items", err)
	}
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load answers", err)
	}

	answerByItem := make(map[uint]model.Answer, len(answers))
	for _, a := range answers {
		answerByItem[a.AttemptItemID] = a
	}

	reviewItems := make([]dto.ReviewItem, len(items))
	for i, item := range items {
		row := dto.ReviewItem{
			AttemptItemID: item.ID,
			Prompt:        item.Prompt,
			Options:       item.Options,
			CorrectIndex:  item.CorrectIndex,
			Points:        item.Points,
		}
		if answer, ok := answerByItem[item.ID]; ok {
			correct := answer.IsCorrect
			row.SelectedIndex = answer.SelectedIndex
			row.IsCorrect = &correct
			row.Explanation = answer.Explanation
		}
		reviewItems[i] = row
	}

	return &dto.AttemptReviewResponse{
		AttemptID:    attempt.ID,
		QuizID:       attempt.QuizID,
		StudentEmail: attempt.StudentEmail,
		Finished:     attempt.Finished,
		Score:        attempt.Score,
		EndsAt:       attempt.EndsAt,
		Items:        reviewItems,
	}, nil
}

func optionText(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return ""
	}
	return options[index]
}
