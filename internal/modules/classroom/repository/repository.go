package repository

import (
	"context"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassroomRepository interface {
	Create(ctx context.Context, classroom *entity.Classroom) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Classroom, error)
	FindAll(ctx context.Context, search string) ([]entity.Classroom, error)
	FindByTeacher(ctx context.Context, teacherID uuid.UUID) ([]entity.Classroom, error)
	Update(ctx context.Context, classroom *entity.Classroom) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type classroomRepository struct {
	db *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) Create(ctx context.Context, classroom *entity.Classroom) error {
	return r.db.WithContext(ctx).Omit("Teacher").Create(classroom).Error
}

func (r *classroomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Classroom, error) {
	var classroom entity.Classroom
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&classroom, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepository) FindAll(ctx context.Context, search string) ([]entity.Classroom, error) {
	var classrooms []entity.Classroom
	query := r.db.WithContext(ctx).Preload("Teacher")
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	err := query.Order("name ASC").Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepository) FindByTeacher(ctx context.Context, teacherID uuid.UUID) ([]entity.Classroom, error) {
	var classrooms []entity.Classroom
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("name ASC").
		Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepository) Update(ctx context.Context, classroom *entity.Classroom) error {
	res := r.db.WithContext(ctx).Model(&entity.Classroom{}).
		Where("id = ?", classroom.ID).
		Updates(map[string]any{
			"name":        classroom.Name,
			"description": classroom.Description,
			"teacher_id":  classroom.TeacherID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete detaches the roster; subjects of the classroom go with it through
// the foreign key cascade.
func (r *classroomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Account{}).Where("classroom_id = ?", id).Update("classroom_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Classroom{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *classroomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Classroom{}).Count(&count).Error
	return count, err
}
