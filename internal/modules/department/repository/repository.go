package repository

import (
	"context"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentRepository interface {
	Create(ctx context.Context, department *entity.Department) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Department, error)
	FindByManager(ctx context.Context, managerID uuid.UUID) (*entity.Department, error)
	FindByManagerIDs(ctx context.Context, managerIDs []uuid.UUID) ([]entity.Department, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]entity.Department, int64, error)
	Update(ctx context.Context, department *entity.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type departmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, department *entity.Department) error {
	return r.db.WithContext(ctx).Omit("Manager").Create(department).Error
}

func (r *departmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Department, error) {
	var department entity.Department
	if err := r.db.WithContext(ctx).Preload("Manager").First(&department, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) FindByManager(ctx context.Context, managerID uuid.UUID) (*entity.Department, error) {
	var department entity.Department
	if err := r.db.WithContext(ctx).Where("manager_id = ?", managerID).First(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) FindByManagerIDs(ctx context.Context, managerIDs []uuid.UUID) ([]entity.Department, error) {
	var departments []entity.Department
	if len(managerIDs) == 0 {
		return departments, nil
	}
	err := r.db.WithContext(ctx).Where("manager_id IN ?", managerIDs).Find(&departments).Error
	return departments, err
}

func (r *departmentRepository) FindAll(ctx context.Context, search string, limit, offset int) ([]entity.Department, int64, error) {
	var departments []entity.Department
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Department{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Manager").
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&departments).Error
	return departments, total, err
}

func (r *departmentRepository) Update(ctx context.Context, department *entity.Department) error {
	res := r.db.WithContext(ctx).Model(&entity.Department{}).
		Where("id = ?", department.ID).
		Updates(map[string]any{
			"name":       department.Name,
			"manager_id": department.ManagerID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete detaches the department's staff and budget requests, then removes
// the row. The manager account is kept.
func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Account{}).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Request{}).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Department{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *departmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Department{}).Count(&count).Error
	return count, err
}
