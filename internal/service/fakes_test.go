package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

// In-memory repository fakes. They reproduce the semantics the services
// depend on, including the quota guard and the exactly-once finish guard,
// so concurrency-sensitive behavior is testable without a database.

type fakeLinkRepo struct {
	links []model.StudentLink
}

func (r *fakeLinkRepo) CreateBatch(links []model.StudentLink) error {
	for i := range links {
		links[i].ID = uint(len(r.links) + 1)
		r.links = append(r.links, links[i])
	}
	return nil
}

func (r *fakeLinkRepo) FindByQuizAndToken(quizID uint, token string) (*model.StudentLink, error) {
	for i := range r.links {
		if r.links[i].QuizID == quizID && r.links[i].Token == token {
			link := r.links[i]
			return &link, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeQuizRepo struct {
	quizzes map[uint]*model.Quiz
	nextID  uint
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{quizzes: make(map[uint]*model.Quiz), nextID: 1}
}

func (r *fakeQuizRepo) Create(quiz *model.Quiz) error {
	quiz.ID = r.nextID
	r.nextID++
	for i := range quiz.Questions {
		quiz.Questions[i].ID = uint(i + 1)
		quiz.Questions[i].QuizID = quiz.ID
	}
	r.quizzes[quiz.ID] = quiz
	return nil
}

func (r *fakeQuizRepo) FindByID(id uint) (*model.Quiz, error) {
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (r *fakeQuizRepo) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	return r.FindByID(id)
}

func (r *fakeQuizRepo) FindAll() ([]model.Quiz, error) {
	var out []model.Quiz
	for _, q := range r.quizzes {
		out = append(out, *q)
	}
	return out, nil
}

func (r *fakeQuizRepo) CreateQuestion(question *model.Question) error {
	quiz, ok := r.quizzes[question.QuizID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	question.ID = uint(len(quiz.Questions) + 1)
	quiz.Questions = append(quiz.Questions, *question)
	return nil
}

func (r *fakeQuizRepo) CreateQuestions(questions []model.Question) error {
	for i := range questions {
		if err := r.CreateQuestion(&questions[i]); err != nil {
			return err
		}
	}
	return nil
}

type fakePoolRepo struct {
	pools []model.QuizPool
}

func (r *fakePoolRepo) Create(pool *model.QuizPool) error {
	pool.ID = uint(len(r.pools) + 1)
	r.pools = append(r.pools, *pool)
	return nil
}

func (r *fakePoolRepo) FindByQuizID(quizID uint) ([]model.QuizPool, error) {
	var out []model.QuizPool
	for _, p := range r.pools {
		if p.QuizID == quizID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePoolRepo) Delete(id uint) error {
	for i, p := range r.pools {
		if p.ID == id {
			r.pools = append(r.pools[:i], r.pools[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeBankRepo struct {
	mu        sync.Mutex
	questions []model.BankQuestion
}

func (r *fakeBankRepo) Create(question *model.BankQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	question.ID = uint(len(r.questions) + 1)
	r.questions = append(r.questions, *question)
	return nil
}

func (r *fakeBankRepo) CreateBatch(questions []model.BankQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range questions {
		questions[i].ID = uint(len(r.questions) + 1)
		r.questions = append(r.questions, questions[i])
	}
	return nil
}

func (r *fakeBankRepo) FindByIDs(ids []uint) ([]model.BankQuestion, error) {
	idSet := make(map[uint]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	var out []model.BankQuestion
	for _, q := range r.questions {
		if idSet[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeBankRepo) FindByTopicAndDifficulty(topicID uint, difficulty string) ([]model.BankQuestion, error) {
	var out []model.BankQuestion
	for _, q := range r.questions {
		if q.TopicID == topicID && q.Difficulty == difficulty {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeBankRepo) CountByTopicAndDifficulty(topicID uint, difficulty string) (int64, error) {
	qs, _ := r.FindByTopicAndDifficulty(topicID, difficulty)
	return int64(len(qs)), nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[uint]*model.Attempt
	answers  map[uint][]model.Answer
	nextID   uint
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{
		attempts: make(map[uint]*model.Attempt),
		answers:  make(map[uint][]model.Answer),
		nextID:   1,
	}
}

func (r *fakeAttemptRepo) FindByID(id uint) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	return &copied, nil
}

func (r *fakeAttemptRepo) CountByQuizAndEmail(quizID uint, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countLocked(quizID, email), nil
}

func (r *fakeAttemptRepo) countLocked(quizID uint, email string) int64 {
	var count int64
	for _, a := range r.attempts {
		if a.QuizID == quizID && a.StudentEmail == email {
			count++
		}
	}
	return count
}

func (r *fakeAttemptRepo) CreateUnderQuota(link *model.StudentLink, attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countLocked(link.QuizID, link.StudentEmail) >= int64(link.MaxAttempts) {
		return apperr.New(apperr.KindConflict, "attempt limit reached")
	}
	attempt.ID = r.nextID
	r.nextID++
	for i := range attempt.Items {
		attempt.Items[i].ID = attempt.ID*100 + uint(i+1)
		attempt.Items[i].AttemptID = attempt.ID
	}
	copied := *attempt
	r.attempts[attempt.ID] = &copied
	return nil
}

func (r *fakeAttemptRepo) Finish(attemptID uint, score int, answers []model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[attemptID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if attempt.Finished {
		return apperr.New(apperr.KindConflict, "attempt already submitted")
	}
	attempt.Finished = true
	attempt.Score = &score
	r.answers[attemptID] = answers
	return nil
}

func (r *fakeAttemptRepo) SummaryByQuiz(quizID uint) (int64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	var total float64
	for _, a := range r.attempts {
		if a.QuizID == quizID && a.Finished && a.Score != nil {
			count++
			total += float64(*a.Score)
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return count, total / float64(count), nil
}

type fakeAnswerRepo struct {
	attemptRepo *fakeAttemptRepo
}

func (r *fakeAnswerRepo) FindByAttemptID(attemptID uint) ([]model.Answer, error) {
	r.attemptRepo.mu.Lock()
	defer r.attemptRepo.mu.Unlock()
	answers := append([]model.Answer(nil), r.attemptRepo.answers[attemptID]...)
	sort.Slice(answers, func(i, j int) bool { return answers[i].AttemptItemID < answers[j].AttemptItemID })
	return answers, nil
}

type fakeItemRepo struct {
	attemptRepo *fakeAttemptRepo
}

func (r *fakeItemRepo) FindByAttemptID(attemptID uint) ([]model.AttemptItem, error) {
	attempt, err := r.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	return attempt.Items, nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uint]*model.QuestionTemplate
	versions  map[uint][]model.TemplateVersion
	nextID    uint
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{
		templates: make(map[uint]*model.QuestionTemplate),
		versions:  make(map[uint][]model.TemplateVersion),
		nextID:    1,
	}
}

func (r *fakeTemplateRepo) Create(template *model.QuestionTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template.ID = r.nextID
	r.nextID++
	r.templates[template.ID] = template
	return nil
}

func (r *fakeTemplateRepo) FindByID(id uint) (*model.QuestionTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return template, nil
}

func (r *fakeTemplateRepo) FindAll() ([]model.QuestionTemplate, error) {
	var out []model.QuestionTemplate
	for _, t := range r.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTemplateRepo) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	template.Status = status
	return nil
}

func (r *fakeTemplateRepo) CreateNextVersion(templateID uint, snapshot model.JSONMap) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[templateID]; !ok {
		return 0, gorm.ErrRecordNotFound
	}
	version := len(r.versions[templateID]) + 1
	r.versions[templateID] = append(r.versions[templateID], model.TemplateVersion{
		TemplateID: templateID,
		Version:    version,
		Snapshot:   snapshot,
	})
	return version, nil
}

type fakeTopicRepo struct {
	topics map[string]*model.Topic
	nextID uint
}

func newFakeTopicRepo() *fakeTopicRepo {
	return &fakeTopicRepo{topics: make(map[string]*model.Topic), nextID: 1}
}

func (r *fakeTopicRepo) FindBySlug(slug string) (*model.Topic, error) {
	topic, ok := r.topics[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return topic, nil
}

func (r *fakeTopicRepo) UpsertBySlug(course, unit, slug string) (*model.Topic, error) {
	if topic, ok := r.topics[slug]; ok {
		return topic, nil
	}
	topic := &model.Topic{ID: r.nextID, Course: course, Unit: unit, Slug: slug}
	r.nextID++
	r.topics[slug] = topic
	return topic, nil
}

// fakeLLM scripts the generative backend: configured or not, a canned
// response or a forced error.
type fakeLLM struct {
	configured bool
	response   string
	err        error
	calls      int
}

func (f *fakeLLM) Configured() bool { return f.configured }

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeMailer struct {
	enabled bool
	sent    []string
	err     error
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendQuizLink(to, quizTitle, url string, maxAttempts int) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

// seqRand returns scripted Intn values in order and cycles when exhausted.
// Float64 walks 0, 0.1, 0.2, ...
type seqRand struct {
	ints []int
	i    int
	f    int
}

func (s *seqRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.i%len(s.ints)] % n
	s.i++
	return v
}

func (s *seqRand) Float64() float64 {
	v := float64(s.f%10) / 10
	s.f++
	return v
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func bankQuestion(id, topicID uint, difficulty string) model.BankQuestion {
	return model.BankQuestion{
		ID:           id,
		TopicID:      topicID,
		Prompt:       fmt.Sprintf("What is %d?", id),
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 1,
		Difficulty:   difficulty,
	}
}
