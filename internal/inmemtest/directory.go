package inmemtest

import (
	"context"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	classroomRepo "anoa.com/campusadmin/internal/modules/classroom/repository"
	departmentRepo "anoa.com/campusadmin/internal/modules/department/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type departmentRepository struct {
	db *DB
}

func NewDepartmentRepository(db *DB) departmentRepo.DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) managerTaken(managerID *uuid.UUID, self uuid.UUID) bool {
	if managerID == nil {
		return false
	}
	for _, d := range r.db.departments {
		if d.ID != self && sameID(d.ManagerID, managerID) {
			return true
		}
	}
	return false
}

func (r *departmentRepository) load(d *entity.Department) entity.Department {
	out := *d
	out.Manager = nil
	if d.ManagerID != nil {
		if m, ok := r.db.accounts[*d.ManagerID]; ok {
			manager := *m
			out.Manager = &manager
		}
	}
	return out
}

func (r *departmentRepository) Create(ctx context.Context, department *entity.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.managerTaken(department.ManagerID, uuid.Nil) {
		return gorm.ErrDuplicatedKey
	}
	department.ID = idOrNew(department.ID)
	department.CreatedAt = r.db.Now()
	department.UpdatedAt = department.CreatedAt
	stored := *department
	stored.Manager = nil
	r.db.departments[department.ID] = &stored
	return nil
}

func (r *departmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Department, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	d, ok := r.db.departments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.load(d)
	return &out, nil
}

func (r *departmentRepository) FindByManager(ctx context.Context, managerID uuid.UUID) (*entity.Department, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, d := range r.db.departments {
		if d.ManagerID != nil && *d.ManagerID == managerID {
			out := *d
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *departmentRepository) FindByManagerIDs(ctx context.Context, managerIDs []uuid.UUID) ([]entity.Department, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []entity.Department{}
	for _, d := range r.db.departments {
		for _, id := range managerIDs {
			if d.ManagerID != nil && *d.ManagerID == id {
				out = append(out, *d)
			}
		}
	}
	return out, nil
}

func (r *departmentRepository) FindAll(ctx context.Context, search string, limit, offset int) ([]entity.Department, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search = strings.ToLower(search)
	var matched []entity.Department
	for _, d := range sortedValues(r.db.departments, func(a, b *entity.Department) bool { return a.Name < b.Name }) {
		if search == "" || strings.Contains(strings.ToLower(d.Name), search) {
			matched = append(matched, r.load(d))
		}
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []entity.Department{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *departmentRepository) Update(ctx context.Context, department *entity.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	d, ok := r.db.departments[department.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.managerTaken(department.ManagerID, department.ID) {
		return gorm.ErrDuplicatedKey
	}
	d.Name = department.Name
	d.ManagerID = department.ManagerID
	d.UpdatedAt = r.db.Now()
	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.departments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, a := range r.db.accounts {
		if a.DepartmentID != nil && *a.DepartmentID == id {
			a.DepartmentID = nil
		}
	}
	for _, req := range r.db.requests {
		if req.DepartmentID != nil && *req.DepartmentID == id {
			req.DepartmentID = nil
		}
	}
	delete(r.db.departments, id)
	return nil
}

func (r *departmentRepository) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.departments)), nil
}

type classroomRepository struct {
	db *DB
}

func NewClassroomRepository(db *DB) classroomRepo.ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) load(c *entity.Classroom) entity.Classroom {
	out := *c
	out.Teacher = nil
	if c.TeacherID != nil {
		if t, ok := r.db.accounts[*c.TeacherID]; ok {
			teacher := *t
			out.Teacher = &teacher
		}
	}
	return out
}

func (r *classroomRepository) Create(ctx context.Context, classroom *entity.Classroom) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	classroom.ID = idOrNew(classroom.ID)
	classroom.CreatedAt = r.db.Now()
	classroom.UpdatedAt = classroom.CreatedAt
	stored := *classroom
	stored.Teacher = nil
	r.db.classrooms[classroom.ID] = &stored
	return nil
}

func (r *classroomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Classroom, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.classrooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.load(c)
	return &out, nil
}

func (r *classroomRepository) list(keep func(c *entity.Classroom) bool) []entity.Classroom {
	out := []entity.Classroom{}
	for _, c := range sortedValues(r.db.classrooms, func(a, b *entity.Classroom) bool { return a.Name < b.Name }) {
		if keep(c) {
			out = append(out, r.load(c))
		}
	}
	return out
}

func (r *classroomRepository) FindAll(ctx context.Context, search string) ([]entity.Classroom, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search = strings.ToLower(search)
	return r.list(func(c *entity.Classroom) bool {
		return search == "" || strings.Contains(strings.ToLower(c.Name), search)
	}), nil
}

func (r *classroomRepository) FindByTeacher(ctx context.Context, teacherID uuid.UUID) ([]entity.Classroom, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.list(func(c *entity.Classroom) bool {
		return c.TeacherID != nil && *c.TeacherID == teacherID
	}), nil
}

func (r *classroomRepository) Update(ctx context.Context, classroom *entity.Classroom) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.classrooms[classroom.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Name = classroom.Name
	c.Description = classroom.Description
	c.TeacherID = classroom.TeacherID
	c.UpdatedAt = r.db.Now()
	return nil
}

func (r *classroomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.classrooms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, a := range r.db.accounts {
		if a.ClassroomID != nil && *a.ClassroomID == id {
			a.ClassroomID = nil
		}
	}
	for subjectID, s := range r.db.subjects {
		if s.ClassroomID == id {
			r.db.deleteSubject(subjectID)
		}
	}
	delete(r.db.classrooms, id)
	return nil
}

func (r *classroomRepository) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.classrooms)), nil
}
