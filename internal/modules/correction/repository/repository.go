package repository

import (
	"context"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CorrectionRepository interface {
	// Record upserts the correction of a submission and flags the submission
	// as corrected, in one transaction.
	Record(ctx context.Context, correction *entity.Correction) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]entity.Correction, error)
}

type correctionRepository struct {
	db *gorm.DB
}

func NewCorrectionRepository(db *gorm.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

func (r *correctionRepository) Record(ctx context.Context, correction *entity.Correction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "notes", "corrected_at", "evaluation_type"}),
		}).Create(correction).Error
		if err != nil {
			return err
		}

		res := tx.Model(&entity.Submission{}).
			Where("id = ?", correction.SubmissionID).
			Updates(map[string]any{"is_corrected": true, "is_correcting": false})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListByStudent returns the corrections of a student's submissions with the
// submission and its subject loaded, newest first.
func (r *correctionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]entity.Correction, error) {
	var corrections []entity.Correction
	err := r.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = corrections.submission_id").
		Where("submissions.student_id = ?", studentID).
		Preload("Submission.Subject").
		Order("corrections.corrected_at DESC").
		Find(&corrections).Error
	return corrections, err
}
