package repository

import (
	"context"
	"time"

	"anoa.com/campusadmin/internal/entity"
	storedFileRepo "anoa.com/campusadmin/internal/modules/storedfile/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubjectFilter struct {
	TeacherID   *uuid.UUID
	ClassroomID *uuid.UUID
	Search      string
	IDs         []uuid.UUID
}

type SubjectRepository interface {
	// Create inserts subject and claims its reference file, if any, in one
	// transaction.
	Create(ctx context.Context, subject *entity.Subject) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]entity.Subject, error)
	Count(ctx context.Context, filter SubjectFilter) (int64, error)
	// Update saves subject and claims newFileURL when it is not empty.
	Update(ctx context.Context, subject *entity.Subject, newFileURL string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountSubmissions(ctx context.Context, subjectID uuid.UUID) (int64, error)
	FindOpenedUnnotified(ctx context.Context, now time.Time) ([]entity.Subject, error)
	MarkOpenNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type subjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(ctx context.Context, subject *entity.Subject) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(subject).Error; err != nil {
			return err
		}
		if subject.FileURL != "" {
			return storedFileRepo.Claim(tx, subject.FileURL)
		}
		return nil
	})
}

func (r *subjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error) {
	var subject entity.Subject
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Classroom").
		First(&subject, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepository) filtered(ctx context.Context, filter SubjectFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Subject{})
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.ClassroomID != nil {
		query = query.Where("classroom_id = ?", *filter.ClassroomID)
	}
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.IDs != nil {
		query = query.Where("id IN ?", filter.IDs)
	}
	return query
}

func (r *subjectRepository) List(ctx context.Context, filter SubjectFilter) ([]entity.Subject, error) {
	var subjects []entity.Subject
	err := r.filtered(ctx, filter).
		Preload("Classroom").
		Order("start_date DESC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepository) Count(ctx context.Context, filter SubjectFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *subjectRepository) Update(ctx context.Context, subject *entity.Subject, newFileURL string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Subject{}).
			Where("id = ?", subject.ID).
			Updates(map[string]any{
				"title":           subject.Title,
				"description":     subject.Description,
				"file_url":        subject.FileURL,
				"evaluation_type": subject.EvaluationType,
				"document_type":   subject.DocumentType,
				"start_date":      subject.StartDate,
				"end_date":        subject.EndDate,
				"classroom_id":    subject.ClassroomID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if newFileURL != "" {
			return storedFileRepo.Claim(tx, newFileURL)
		}
		return nil
	})
}

func (r *subjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Subject{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subjectRepository) CountSubmissions(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).Where("subject_id = ?", subjectID).Count(&count).Error
	return count, err
}

func (r *subjectRepository) FindOpenedUnnotified(ctx context.Context, now time.Time) ([]entity.Subject, error) {
	var subjects []entity.Subject
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ? AND open_notified_at IS NULL", now, now).
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepository) MarkOpenNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Subject{}).Where("id = ?", id).Update("open_notified_at", at).Error
}
