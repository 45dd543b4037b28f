package repository

import (
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

type PoolRepository interface {
	Create(pool *model.QuizPool) error
	FindByQuizID(quizID uint) ([]model.QuizPool, error)
	Delete(id uint) error
}

type poolRepository struct {
	db *gorm.DB
}

func NewPoolRepository(db *gorm.DB) PoolRepository {
	return &poolRepository{db: db}
}

func (r *poolRepository) Create(pool *model.QuizPool) error {
	return r.db.Create(pool).Error
}

func (r *poolRepository) FindByQuizID(quizID uint) ([]model.QuizPool, error) {
	var pools []model.QuizPool
	err := r.db.Preload("Topic").Where("quiz_id = ?", quizID).Order("created_at ASC").Find(&pools).Error
	if err != nil {
		return nil, err
	}
	return pools, nil
}

func (r *poolRepository) Delete(id uint) error {
	return r.db.Delete(&model.QuizPool{}, id).Error
}
