package repository

import (
	"context"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestFilter struct {
	UserID *uuid.UUID
	Search string
}

type RequestRepository interface {
	Create(ctx context.Context, request *entity.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]entity.Request, error)
	// UpdateStatus changes the status only while it still equals from and
	// reports whether a row was updated.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.RequestStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *entity.Request) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(request).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Request, error) {
	var request entity.Request
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Department").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]entity.Request, error) {
	var requests []entity.Request
	query := r.db.WithContext(ctx).Preload("User").Preload("Department")

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR category ILIKE ?", like, like)
	}

	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Request{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Request{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
