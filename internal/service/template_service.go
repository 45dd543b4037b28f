package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/lmorrow/quizforge/internal/model"
	"github.com/lmorrow/quizforge/internal/random"
	"github.com/lmorrow/quizforge/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	previewMaxSamples  = 10
	publishMaxVariants = 100
)

// TemplateService owns the template lifecycle: creation with strict
// variable/placeholder validation, admin previews, and publishing, which
// snapshots an immutable version and expands variants into the bank.
type TemplateService interface {
	Create(req dto.TemplateCreateRequest) (*dto.TemplateResponse, error)
	List() ([]dto.TemplateResponse, error)
	UpdateStatus(id uint, status string) error
	Preview(ctx context.Context, req dto.TemplatePreviewRequest) (*dto.TemplatePreviewResponse, error)
	Publish(ctx context.Context, req dto.TemplatePublishRequest) (*dto.TemplatePublishResponse, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
	topicRepo    repository.TopicRepository
	bankRepo     repository.BankQuestionRepository
	distractors  DistractorService
	newRng       func() random.Rand
}

func NewTemplateService(
	templateRepo repository.TemplateRepository,
	topicRepo repository.TopicRepository,
	bankRepo repository.BankQuestionRepository,
	distractors DistractorService,
) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		topicRepo:    topicRepo,
		bankRepo:     bankRepo,
		distractors:  distractors,
		newRng:       random.New,
	}
}

func (s *templateService) Create(req dto.TemplateCreateRequest) (*dto.TemplateResponse, error) {
	variables := model.VarMap(req.Variables)

	if errs := ValidateVariables(variables); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "variable validation failed").WithDetails(errs...)
	}

	// Strict: a placeholder with no declared variable fails creation, in
	// any of the markdown fields, so literal {{x}} can never reach students.
	var placeholderErrs []string
	placeholderErrs = append(placeholderErrs, ValidatePlaceholders(req.PromptMD, variables)...)
	if req.SolutionStepsMD != nil {
		placeholderErrs = append(placeholderErrs, ValidatePlaceholders(*req.SolutionStepsMD, variables)...)
	}
	if req.ExplanationMD != nil {
		placeholderErrs = append(placeholderErrs, ValidatePlaceholders(*req.ExplanationMD, variables)...)
	}
	if len(placeholderErrs) > 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "template validation failed").WithDetails(placeholderErrs...)
	}

	topic, err := upsertTopicBySlug(s.topicRepo, req.TopicSlug)
	if err != nil {
		return nil, err
	}

	template := model.QuestionTemplate{
		TopicID:         topic.ID,
		Title:           req.Title,
		PromptMD:        req.PromptMD,
		Variables:       variables,
		Difficulty:      NormalizeDifficulty(req.Difficulty),
		TeksCode:        req.TeksCode,
		SolutionStepsMD: req.SolutionStepsMD,
		ExplanationMD:   req.ExplanationMD,
		Notes:           req.Notes,
		Status:          model.TemplateStatusDraft,
		CreatedBy:       "admin",
	}
	if err := s.templateRepo.Create(&template); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not create template", err)
	}

	log.Info().Uint("templateID", template.ID).Str("topic", topic.Slug).Msg("Template created")
	return templateToResponse(&template, topic.Slug), nil
}

func (s *templateService) List() ([]dto.TemplateResponse, error) {
	templates, err := s.templateRepo.FindAll()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not list templates", err)
	}
	out := make([]dto.TemplateResponse, len(templates))
	for i := range templates {
		out[i] = *templateToResponse(&templates[i], templates[i].Topic.Slug)
	}
	return out, nil
}

func (s *templateService) UpdateStatus(id uint, status string) error {
	if _, err := s.findTemplate(id); err != nil {
		return err
	}
	if err := s.templateRepo.UpdateStatus(id, status); err != nil {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "could not update template status", err)
	}
	return nil
}

func (s *templateService) Preview(ctx context.Context, req dto.TemplatePreviewRequest) (*dto.TemplatePreviewResponse, error) {
	template, err := s.findTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}

	n := req.N
	if n <= 0 {
		n = 3
	}
	if n > previewMaxSamples {
		n = previewMaxSamples
	}

	rng := s.newRng()
	samples := make([]dto.PreviewSample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, s.expandSample(ctx, template, rng, i+1))
	}

	return &dto.TemplatePreviewResponse{
		Template: *templateToResponse(template, template.Topic.Slug),
		Samples:  samples,
	}, nil
}

func (s *templateService) Publish(ctx context.Context, req dto.TemplatePublishRequest) (*dto.TemplatePublishResponse, error) {
	howMany := req.HowMany
	if howMany == 0 {
		howMany = 20
	}
	if howMany < 1 || howMany > publishMaxVariants {
		return nil, apperr.Newf(apperr.KindInvalidRequest, "how_many must be between 1 and %d", publishMaxVariants)
	}

	template, err := s.findTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}

	snapshot := model.JSONMap{
		"title":      template.Title,
		"prompt_md":  template.PromptMD,
		"variables":  template.Variables,
		"difficulty": template.Difficulty,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if template.TeksCode != nil {
		snapshot["teks_code"] = *template.TeksCode
	}
	if template.SolutionStepsMD != nil {
		snapshot["solution_steps_md"] = *template.SolutionStepsMD
	}
	if template.ExplanationMD != nil {
		snapshot["explanation_md"] = *template.ExplanationMD
	}
	// The repo assigns the version under a lock on the template row, so two
	// concurrent publishes get distinct consecutive versions.
	version, err := s.templateRepo.CreateNextVersion(template.ID, snapshot)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not snapshot template version", err)
	}

	// A seed makes the expansion reproducible; without one each publish run
	// draws independently.
	var rng random.Rand
	if req.Seed != nil {
		rng = random.NewSeeded(*req.Seed)
	} else {
		rng = s.newRng()
	}

	seen := make(map[string]bool)
	var bankItems []model.BankQuestion
	maxTries := howMany * 3
	for tries := 0; len(bankItems) < howMany && tries < maxTries; tries++ {
		sample := s.expandSample(ctx, template, rng, len(bankItems)+1)
		if seen[sample.Prompt] {
			continue
		}
		seen[sample.Prompt] = true

		templateID := template.ID
		item := model.BankQuestion{
			TopicID:          template.TopicID,
			Prompt:           sample.Prompt,
			Options:          sample.Options,
			CorrectIndex:     sample.CorrectIndex,
			Difficulty:       template.Difficulty,
			TeksCode:         template.TeksCode,
			Explanation:      sample.Explanation,
			CreatedBy:        "template-publisher",
			OriginTemplateID: &templateID,
		}
		bankItems = append(bankItems, item)
	}
	if len(bankItems) == 0 {
		return nil, apperr.New(apperr.KindValidationFailed, "template produced no unique variants")
	}

	if err := s.bankRepo.CreateBatch(bankItems); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not insert bank questions", err)
	}

	if template.Status != model.TemplateStatusPublished {
		if err := s.templateRepo.UpdateStatus(template.ID, model.TemplateStatusPublished); err != nil {
			log.Error().Err(err).Uint("templateID", template.ID).Msg("Publish: failed to promote template status")
		}
	}

	log.Info().Uint("templateID", template.ID).Int("version", version).Int("inserted", len(bankItems)).
		Msg("Template published")
	return &dto.TemplatePublishResponse{TemplateID: template.ID, Version: version, Inserted: len(bankItems)}, nil
}

// expandSample materializes one concrete variant: bound values, rendered
// markdown, the correct answer, and a shuffled four-option set.
func (s *templateService) expandSample(ctx context.Context, template *model.QuestionTemplate, rng random.Rand, id int) dto.PreviewSample {
	values := ChooseValues(template.Variables, rng)
	prompt := RenderTemplate(template.PromptMD, values)
	correct := correctAnswer(template, values)

	distractors := s.distractors.MakeDistractors(ctx, DistractorInput{
		Topic:      template.Topic.Course,
		Difficulty: template.Difficulty,
		Correct:    correct,
		Values:     values,
		Prompt:     prompt,
	})
	options, correctIndex := s.distractors.ToOptions(correct, distractors, rng)

	sample := dto.PreviewSample{
		ID:            id,
		Values:        values,
		Prompt:        prompt,
		Options:       options,
		CorrectIndex:  correctIndex,
		CorrectAnswer: correct,
	}
	if template.SolutionStepsMD != nil {
		rendered := RenderTemplate(*template.SolutionStepsMD, values)
		sample.SolutionSteps = &rendered
	}
	if template.ExplanationMD != nil {
		rendered := RenderTemplate(*template.ExplanationMD, values)
		sample.Explanation = &rendered
	}
	return sample
}

// correctAnswer extracts the answer for a variant. With no symbolic solver
// the first declared variable's bound value stands in, matching how
// template authors structure their solution fields.
func correctAnswer(template *model.QuestionTemplate, values map[string]interface{}) string {
	names := make([]string, 0, len(values))
	for name := range template.Variables {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "Answer"
	}
	// Map iteration order is random; pick the lexicographically first name
	// so the same values always yield the same answer.
	first := names[0]
	for _, n := range names[1:] {
		if n < first {
			first = n
		}
	}
	if v, ok := values[first]; ok {
		return FormatValue(v)
	}
	return "Answer"
}

func (s *templateService) findTemplate(id uint) (*model.QuestionTemplate, error) {
	template, err := s.templateRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "template not found")
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not load template", err)
	}
	return template, nil
}

// upsertTopicBySlug parses a "course-unit" slug and creates the topic on
// first reference.
func upsertTopicBySlug(topicRepo repository.TopicRepository, slug string) (*model.Topic, error) {
	parts := strings.SplitN(slug, "-", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "invalid topic_slug format, expected 'course-unit'")
	}
	topic, err := topicRepo.UpsertBySlug(parts[0], parts[1], slug)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "could not upsert topic", err)
	}
	return topic, nil
}

func templateToResponse(template *model.QuestionTemplate, topicSlug string) *dto.TemplateResponse {
	var resp dto.TemplateResponse
	if err := copier.Copy(&resp, template); err != nil {
		log.Error().Err(err).Uint("templateID", template.ID).Msg("Error copying template to DTO")
	}
	resp.TopicSlug = topicSlug
	return &resp
}
