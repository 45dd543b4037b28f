package repository

import (
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepository interface {
	Create(template *model.QuestionTemplate) error
	FindByID(id uint) (*model.QuestionTemplate, error)
	FindAll() ([]model.QuestionTemplate, error)
	UpdateStatus(id uint, status string) error
	// CreateNextVersion inserts an immutable publish-time snapshot under the
	// next version number and returns it. Version assignment and insert run
	// in one transaction with the template row locked, so concurrent
	// publishes cannot race each other onto the same version.
	CreateNextVersion(templateID uint, snapshot model.JSONMap) (int, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(template *model.QuestionTemplate) error {
	return r.db.Create(template).Error
}

func (r *templateRepository) FindByID(id uint) (*model.QuestionTemplate, error) {
	var template model.QuestionTemplate
	if err := r.db.Preload("Topic").First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindAll() ([]model.QuestionTemplate, error) {
	var templates []model.QuestionTemplate
	if err := r.db.Preload("Topic").Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&model.QuestionTemplate{}).Where("id = ?", id).Update("status", status).Error
}

func (r *templateRepository) CreateNextVersion(templateID uint, snapshot model.JSONMap) (int, error) {
	version := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var template model.QuestionTemplate
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&template, templateID).Error; err != nil {
			return err
		}

		var latest int
		err := tx.Model(&model.TemplateVersion{}).
			Where("template_id = ?", templateID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&latest).Error
		if err != nil {
			return err
		}

		version = latest + 1
		return tx.Create(&model.TemplateVersion{
			TemplateID: templateID,
			Version:    version,
			Snapshot:   snapshot,
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}
