package repository

import (
	"context"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"gorm.io/gorm"
)

type StoredFileRepository interface {
	Create(ctx context.Context, file *entity.StoredFile) error
	FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.StoredFile, error)
	DeleteByURL(ctx context.Context, url string) error
}

type storedFileRepository struct {
	db *gorm.DB
}

func NewStoredFileRepository(db *gorm.DB) StoredFileRepository {
	return &storedFileRepository{db: db}
}

func (r *storedFileRepository) Create(ctx context.Context, file *entity.StoredFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// FindOrphans returns files never claimed before cutoffTime, plus claimed
// files whose subject or submission row has since been deleted.
func (r *storedFileRepository) FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.StoredFile, error) {
	var files []entity.StoredFile
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoffTime).
		Where("claimed = ? OR (NOT EXISTS (SELECT 1 FROM subjects WHERE subjects.file_url = stored_files.url) "+
			"AND NOT EXISTS (SELECT 1 FROM submissions WHERE submissions.file_url = stored_files.url))", false).
		Find(&files).Error
	return files, err
}

func (r *storedFileRepository) DeleteByURL(ctx context.Context, url string) error {
	return r.db.WithContext(ctx).Where("url = ?", url).Delete(&entity.StoredFile{}).Error
}

// Claim marks url as referenced. It runs inside the caller's transaction so
// that the referencing row and the claim commit together.
func Claim(tx *gorm.DB, url string) error {
	res := tx.Model(&entity.StoredFile{}).Where("url = ?", url).Update("claimed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
