package repository

import (
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	FindByAttemptID(attemptID uint) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) FindByAttemptID(attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	if err := r.db.Where("attempt_id = ?", attemptID).Order("attempt_item_id ASC").Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}
