package repository

import (
	"context"

	"anoa.com/campusadmin/internal/entity"
	storedFileRepo "anoa.com/campusadmin/internal/modules/storedfile/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository interface {
	// Create inserts the submission and claims its file in one transaction.
	// A second deposit for the same (student, subject) fails with
	// gorm.ErrDuplicatedKey.
	Create(ctx context.Context, submission *entity.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error)
	FindByStudentAndSubject(ctx context.Context, studentID, subjectID uuid.UUID) (*entity.Submission, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]entity.Submission, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]entity.Submission, error)
	MarkCorrecting(ctx context.Context, id uuid.UUID) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(submission).Error; err != nil {
			return err
		}
		return storedFileRepo.Claim(tx, submission.FileURL)
	})
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Student").
		Preload("Correction").
		First(&submission, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindByStudentAndSubject(ctx context.Context, studentID, subjectID uuid.UUID) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Correction").
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Correction").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Correction").
		Where("subject_id = ?", subjectID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) MarkCorrecting(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("id = ? AND is_corrected = ?", id, false).
		Update("is_correcting", true).Error
}
