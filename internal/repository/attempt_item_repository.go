package repository

import (
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

type AttemptItemRepository interface {
	FindByAttemptID(attemptID uint) ([]model.AttemptItem, error)
}

type attemptItemRepository struct {
	db *gorm.DB
}

func NewAttemptItemRepository(db *gorm.DB) AttemptItemRepository {
	return &attemptItemRepository{db: db}
}

func (r *attemptItemRepository) FindByAttemptID(attemptID uint) ([]model.AttemptItem, error) {
	var items []model.AttemptItem
	if err := r.db.Where("attempt_id = ?", attemptID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
