package repository

import (
	"errors"

	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
)

type TopicRepository interface {
	FindBySlug(slug string) (*model.Topic, error)
	// UpsertBySlug returns the existing topic for slug, creating it first if
	// absent. Topics are created lazily on first reference.
	UpsertBySlug(course, unit, slug string) (*model.Topic, error)
}

type topicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) FindBySlug(slug string) (*model.Topic, error) {
	var topic model.Topic
	if err := r.db.Where("slug = ?", slug).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepository) UpsertBySlug(course, unit, slug string) (*model.Topic, error) {
	var topic model.Topic
	err := r.db.Where("slug = ?", slug).First(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	topic = model.Topic{Course: course, Unit: unit, Slug: slug}
	if err := r.db.Create(&topic).Error; err != nil {
		// A concurrent insert may have won the unique-slug race; re-read.
		var existing model.Topic
		if findErr := r.db.Where("slug = ?", slug).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &topic, nil
}
