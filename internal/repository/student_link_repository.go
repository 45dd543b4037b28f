package repository

import (
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

type StudentLinkRepository interface {
	CreateBatch(links []model.StudentLink) error
	FindByQuizAndToken(quizID uint, token string) (*model.StudentLink, error)
}

type studentLinkRepository struct {
	db *gorm.DB
}

func NewStudentLinkRepository(db *gorm.DB) StudentLinkRepository {
	return &studentLinkRepository{db: db}
}

func (r *studentLinkRepository) CreateBatch(links []model.StudentLink) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Create(&links).Error
}

func (r *studentLinkRepository) FindByQuizAndToken(quizID uint, token string) (*model.StudentLink, error) {
	var link model.StudentLink
	err := r.db.Preload("Quiz").
		Where("quiz_id = ? AND token = ?", quizID, token).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}
