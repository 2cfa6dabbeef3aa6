package repository

import (
	"context"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountFilter narrows List and Count. Zero values mean "any".
type AccountFilter struct {
	Roles        []entity.Role
	DepartmentID *uuid.UUID
	ClassroomID  *uuid.UUID
	Search       string
}

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]entity.Account, error)
	Count(ctx context.Context, filter AccountFilter) (int64, error)
	Update(ctx context.Context, account *entity.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	AssignClassroom(ctx context.Context, classroomID uuid.UUID, studentIDs []uuid.UUID) error
	RemoveFromClassroom(ctx context.Context, classroomID, studentID uuid.UUID) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account entity.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Account, error) {
	var accounts []entity.Account
	if len(ids) == 0 {
		return accounts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) filtered(ctx context.Context, filter AccountFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Account{})

	if len(filter.Roles) > 0 {
		query = query.Where("role IN ?", filter.Roles)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.ClassroomID != nil {
		query = query.Where("classroom_id = ?", *filter.ClassroomID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like)
	}
	return query
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]entity.Account, error) {
	var accounts []entity.Account
	err := r.filtered(ctx, filter).
		Order("first_name ASC, last_name ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) Count(ctx context.Context, filter AccountFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Account{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *accountRepository) AssignClassroom(ctx context.Context, classroomID uuid.UUID, studentIDs []uuid.UUID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("id IN ? AND role = ?", studentIDs, entity.RoleStudent).
		Update("classroom_id", classroomID).Error
}

func (r *accountRepository) RemoveFromClassroom(ctx context.Context, classroomID, studentID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("id = ? AND classroom_id = ?", studentID, classroomID).
		Update("classroom_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
