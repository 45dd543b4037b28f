package repository

import (
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	FindByID(id uint) (*model.Attempt, error)
	CountByQuizAndEmail(quizID uint, email string) (int64, error)
	// CreateUnderQuota atomically re-checks the per-link attempt quota and
	// inserts the attempt with its snapshot items, all or nothing. The link
	// row is locked for the duration of the transaction so two concurrent
	// starts on the same link cannot both pass the quota check.
	CreateUnderQuota(link *model.StudentLink, attempt *model.Attempt) error
	// Finish marks the attempt finished and persists its graded answers as a
	// single unit. The finished=false guard makes grading exactly-once: a
	// concurrent second submit observes apperr.KindConflict.
	Finish(attemptID uint, score int, answers []model.Answer) error
	SummaryByQuiz(quizID uint) (count int64, avgScore float64, err error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) CountByQuizAndEmail(quizID uint, email string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("quiz_id = ? AND student_email = ?", quizID, email).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) CreateUnderQuota(link *model.StudentLink, attempt *model.Attempt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var locked model.StudentLink
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, link.ID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.Attempt{}).
			Where("quiz_id = ? AND student_email = ?", link.QuizID, link.StudentEmail).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(locked.MaxAttempts) {
			return apperr.New(apperr.KindConflict, "attempt limit reached")
		}

		// GORM inserts the associated AttemptItems in the same transaction;
		// a failed item insert rolls back the attempt row too.
		return tx.Create(attempt).Error
	})
}

func (r *attemptRepository) Finish(attemptID uint, score int, answers []model.Answer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Attempt{}).
			Where("id = ? AND finished = false", attemptID).
			Updates(map[string]interface{}{"finished": true, "score": score})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindConflict, "attempt already submitted")
		}

		if len(answers) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "attempt_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_index", "is_correct", "explanation", "updated_at",
			}),
		}).Create(&answers).Error
	})
}

func (r *attemptRepository) SummaryByQuiz(quizID uint) (int64, float64, error) {
	var result struct {
		Count    int64
		AvgScore float64
	}
	err := r.db.Model(&model.Attempt{}).
		Select("COUNT(*) as count, COALESCE(AVG(score), 0) as avg_score").
		Where("quiz_id = ? AND finished = true", quizID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Count, result.AvgScore, nil
}
