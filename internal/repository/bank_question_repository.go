package repository

import (
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

type BankQuestionRepository interface {
	Create(question *model.BankQuestion) error
	CreateBatch(questions []model.BankQuestion) error
	FindByIDs(ids []uint) ([]model.BankQuestion, error)
	FindByTopicAndDifficulty(topicID uint, difficulty string) ([]model.BankQuestion, error)
	CountByTopicAndDifficulty(topicID uint, difficulty string) (int64, error)
}

type bankQuestionRepository struct {
	db *gorm.DB
}

func NewBankQuestionRepository(db *gorm.DB) BankQuestionRepository {
	return &bankQuestionRepository{db: db}
}

func (r *bankQuestionRepository) Create(question *model.BankQuestion) error {
	return r.db.Create(question).Error
}

func (r *bankQuestionRepository) CreateBatch(questions []model.BankQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}

func (r *bankQuestionRepository) FindByIDs(ids []uint) ([]model.BankQuestion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []model.BankQuestion
	if err := r.db.Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *bankQuestionRepository) FindByTopicAndDifficulty(topicID uint, difficulty string) ([]model.BankQuestion, error) {
	var questions []model.BankQuestion
	err := r.db.
		Where("topic_id = ? AND difficulty = ?", topicID, difficulty).
		Order("created_at DESC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *bankQuestionRepository) CountByTopicAndDifficulty(topicID uint, difficulty string) (int64, error) {
	var count int64
	err := r.db.Model(&model.BankQuestion{}).
		Where("topic_id = ? AND difficulty = ?", topicID, difficulty).
		Count(&count).Error
	return count, err
}
