package service

import (
	"errors"
	"fmt"

	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultQuizDurationSeconds = 1800

// QuizService covers the admin surface for quizzes: creation with static
// questions, legacy generation from weighted bank sources, bank and pool
// management, and the scoring summary.
type QuizService interface {
	CreateQuiz(req dto.QuizCreateRequest) (*dto.QuizResponse, error)
	AddQuestions(quizID uint, req dto.QuizQuestionsAddRequest) (*dto.QuizResponse, error)
	ListQuizzes() ([]dto.QuizResponse, error)
	GenerateFromSources(req dto.QuizGenerateRequest) (*dto.QuizResponse, error)
	AddBankQuestion(req dto.BankQuestionCreateRequest) (*model.BankQuestion, error)
	AddPool(req dto.PoolCreateRequest) (*dto.PoolResponse, error)
	ListPools(quizID uint) ([]dto.PoolResponse, error)
	DeletePool(quizID, poolID uint) error
	Summary(quizID uint) (*dto.QuizSummaryResponse, error)
}

type quizService struct {
	quizRepo    repository.QuizRepository
	bankRepo    repository.BankQuestionRepository
	poolRepo    repository.PoolRepository
	topicRepo   repository.TopicRepository
	attemptRepo repository.AttemptRepository
	newRng      func() random.Rand
}

func NewQuizService(
	quizRepo repository.QuizRepository,
	bankRepo repository.BankQuestionRepository,
	poolRepo repository.PoolRepository,
	topicRepo repository.TopicRepository,
	attemptRepo repository.AttemptRepository,
) QuizService {
	return &quizService{
		quizRepo:    quizRepo,
		bankRepo:    bankRepo,
		poolRepo:    poolRepo,
		topicRepo:   topicRepo,
		attemptRepo: attemptRepo,
		newRng:      random.New,
	}
}

func (s *quizService) CreateQuiz(req dto.QuizCreateRequest) (*dto.QuizResponse, error) {
	questions, err := buildStaticQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	quiz := model.Quiz{
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		Questions:       questions,
	}
	if err := s.quizRepo.Create(&quiz); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create quiz", err)
	}

	log.Info().Uint("quizID", quiz.ID).Int("questions", len(questions)).Msg("Quiz created")
	return quizToResponse(&quiz, len(questions)), nil
}

// AddQuestions appends static questions to an existing quiz. Attempts
// already started keep their frozen snapshots and never see the additions.
func (s *quizService) AddQuestions(quizID uint, req dto.QuizQuestionsAddRequest) (*dto.QuizResponse, error) {
	if _, err := s.quizRepo.FindByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "quiz not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load quiz", err)
	}

	questions, err := buildStaticQuestions(req.Questions)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].QuizID = quizID
	}
	if err := s.quizRepo.CreateQuestions(questions); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not add questions", err)
	}

	quiz, err := s.quizRepo.FindByIDWithQuestions(quizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not reload quiz", err)
	}

	log.Info().Uint("quizID", quizID).Int("added", len(questions)).Msg("Questions added to quiz")
	return quizToResponse(quiz, len(quiz.Questions)), nil
}

func (s *quizService) ListQuizzes() ([]dto.QuizResponse, error) {
	quizzes, err := s.quizRepo.FindAll()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not list quizzes", err)
	}
	out := make([]dto.QuizResponse, len(quizzes))
	for i := range quizzes {
		out[i] = *quizToResponse(&quizzes[i], 0)
	}
	return out, nil
}

// GenerateFromSources builds a static quiz by weighted-sampling each source's
// curated bank question set. The sampled questions are copied into the quiz's
// own question rows, so later bank edits cannot change the quiz.
func (s *quizService) GenerateFromSources(req dto.QuizGenerateRequest) (*dto.QuizResponse, error) {
	duration := req.DurationSeconds
	if duration <= 0 {
		duration = defaultQuizDurationSeconds
	}

	rng := s.newRng()
	var questions []model.Question
	for si, source := range req.Sources {
		// Sources may repeat an id; look up each one once so a duplicate is
		// not mistaken for an unknown question. Last weight wins.
		ids := make([]uint, 0, len(source.Items))
		weightByID := make(map[uint]float64, len(source.Items))
		for _, item := range source.Items {
			if _, ok := weightByID[item.BankQuestionID]; !ok {
				ids = append(ids, item.BankQuestionID)
			}
			weightByID[item.BankQuestionID] = item.Weight
		}

		bankQuestions, err := s.bankRepo.FindByIDs(ids)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load bank questions", err)
		}
		if len(bankQuestions) != len(ids) {
			return nil, apperr.Newf(apperr.KindValidationFailed,
				"source %d references %d unknown bank questions", si+1, len(ids)-len(bankQuestions))
		}

		weighted := make([]Weighted[model.BankQuestion], len(bankQuestions))
		for i, bq := range bankQuestions {
			weighted[i] = Weighted[model.BankQuestion]{Item: bq, Weight: weightByID[bq.ID]}
		}
		picked := WeightedSample(weighted, source.Count, rng)
		if len(picked) < source.Count {
			log.Warn().Int("source", si+1).Int("wanted", source.Count).Int("got", len(picked)).
				Msg("GenerateFromSources: source pool smaller than requested count")
		}

		for _, bq := range picked {
			bankID := bq.ID
			questions = append(questions, model.Question{
				Prompt:         bq.Prompt,
				Options:        bq.Options,
				CorrectIndex:   bq.CorrectIndex,
				Points:         1,
				TeksCode:       bq.TeksCode,
				BankQuestionID: &bankID,
			})
		}
	}
	if len(questions) == 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "sources produced no questions")
	}

	quiz := model.Quiz{
		Title:           req.Title,
		DurationSeconds: duration,
		Questions:       questions,
	}
	if err := s.quizRepo.Create(&quiz); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create quiz", err)
	}

	log.Info().Uint("quizID", quiz.ID).Int("questions", len(questions)).Msg("Quiz generated from sources")
	return quizToResponse(&quiz, len(questions)), nil
}

func (s *quizService) AddBankQuestion(req dto.BankQuestionCreateRequest) (*model.BankQuestion, error) {
	options := []string(req.Options)
	if len(options) < 2 {
		return nil, apperr.New(apperr.KindValidationFailed, "at least 2 options are required")
	}
	if req.CorrectIndex == nil || *req.CorrectIndex < 0 || *req.CorrectIndex >= len(options) {
		return nil, apperr.New(apperr.KindValidationFailed, "correct_index out of range")
	}

	topic, err := upsertTopicBySlug(s.topicRepo, req.TopicSlug)
	if err != nil {
		return nil, err
	}

	question := model.BankQuestion{
		TopicID:      topic.ID,
		Prompt:       req.Prompt,
		Options:      options,
		CorrectIndex: *req.CorrectIndex,
		Difficulty:   NormalizeDifficulty(req.Difficulty),
		TeksCode:     req.TeksCode,
		Explanation:  req.Explanation,
		CreatedBy:    "admin",
	}
	if err := s.bankRepo.Create(&question); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create bank question", err)
	}
	return &question, nil
}

func (s *quizService) AddPool(req dto.PoolCreateRequest) (*dto.PoolResponse, error) {
	if _, err := s.quizRepo.FindByID(req.QuizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "quiz not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load quiz", err)
	}

	topic, err := s.topicRepo.FindBySlug(req.TopicSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "topic %q not found", req.TopicSlug)
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load topic", err)
	}

	difficulty := NormalizeDifficulty(req.Difficulty)
	pool := model.QuizPool{
		QuizID:     req.QuizID,
		TopicID:    topic.ID,
		Difficulty: difficulty,
		DrawCount:  req.DrawCount,
	}
	if err := s.poolRepo.Create(&pool); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create pool", err)
	}

	available, err := s.bankRepo.CountByTopicAndDifficulty(topic.ID, difficulty)
	if err != nil {
		log.Error().Err(err).Uint("poolID", pool.ID).Msg("Could not count available bank questions")
	}
	if available < int64(pool.DrawCount) {
		log.Warn().Uint("poolID", pool.ID).Int64("available", available).Int("drawCount", pool.DrawCount).
			Msg("Pool draw count exceeds available bank questions")
	}

	return &dto.PoolResponse{
		ID:         pool.ID,
		QuizID:     pool.QuizID,
		TopicSlug:  topic.Slug,
		Difficulty: pool.Difficulty,
		DrawCount:  pool.DrawCount,
		Available:  available,
	}, nil
}

func (s *quizService) ListPools(quizID uint) ([]dto.PoolResponse, error) {
	pools, err := s.poolRepo.FindByQuizID(quizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not list pools", err)
	}

	out := make([]dto.PoolResponse, len(pools))
	for i, pool := range pools {
		available, err := s.bankRepo.CountByTopicAndDifficulty(pool.TopicID, pool.Difficulty)
		if err != nil {
			log.Error().Err(err).Uint("poolID", pool.ID).Msg("Could not count available bank questions")
		}
		out[i] = dto.PoolResponse{
			ID:         pool.ID,
			QuizID:     pool.QuizID,
			TopicSlug:  pool.Topic.Slug,
			Difficulty: pool.Difficulty,
			DrawCount:  pool.DrawCount,
			Available:  available,
		}
	}
	return out, nil
}

func (s *quizService) DeletePool(quizID, poolID uint) error {
	pools, err := s.poolRepo.FindByQuizID(quizID)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "could not list pools", err)
	}
	for _, pool := range pools {
		if pool.ID == poolID {
			if err := s.poolRepo.Delete(poolID); err != nil {
				return apperr.Wrap(apperr.KindUpstreamUnavailable, "could not delete pool", err)
			}
			return nil
		}
	}
	return apperr.New(apperr.KindNotFound, fmt.Sprintf("pool %d not found on quiz %d", poolID, quizID))
}

func (s *quizService) Summary(quizID uint) (*dto.QuizSummaryResponse, error) {
	if _, err := s.quizRepo.FindByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "quiz not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load quiz", err)
	}

	count, avg, err := s.attemptRepo.SummaryByQuiz(quizID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not compute summary", err)
	}
	return &dto.QuizSummaryResponse{QuizID: quizID, AttemptCount: count, AverageScore: avg}, nil
}

// buildStaticQuestions validates and converts admin-supplied questions:
// at least 2 options, correct_index in bounds, points defaulting to 1.
func buildStaticQuestions(reqs []dto.StaticQuestionRequest) ([]model.Question, error) {
	questions := make([]model.Question, len(reqs))
	for i, q := range reqs {
		options := []string(q.Options)
		if len(options) < 2 {
			return nil, apperr.Newf(apperr.KindValidationFailed, "question %d needs at least 2 options", i+1)
		}
		if q.CorrectIndex == nil || *q.CorrectIndex < 0 || *q.CorrectIndex >= len(options) {
			return nil, apperr.Newf(apperr.KindValidationFailed, "question %d correct_index out of range", i+1)
		}
		points := q.Points
		if points <= 0 {
			points = 1
		}
		questions[i] = model.Question{
			Prompt:       q.Prompt,
			Options:      options,
			CorrectIndex: *q.CorrectIndex,
			Points:       points,
			TeksCode:     q.TeksCode,
		}
	}
	return questions, nil
}

func quizToResponse(quiz *model.Quiz, questionCount int) *dto.QuizResponse {
	return &dto.QuizResponse{
		ID:              quiz.ID,
		Title:           quiz.Title,
		DurationSeconds: quiz.DurationSeconds,
		QuestionCount:   questionCount,
		CreatedAt:       quiz.CreatedAt,
	}
}
