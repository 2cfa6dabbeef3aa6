package classroom

import (
	"context"
	"errors"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"anoa.com/campusadmin/internal/modules/classroom/dto"
	"anoa.com/campusadmin/internal/modules/classroom/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const msgNotFound = "Classe introuvable"

type ClassroomService interface {
	CreateClassroom(ctx context.Context, req dto.ClassroomRequest) (*dto.ClassroomResponse, error)
	GetAllClassrooms(ctx context.Context, search string) (*dto.ClassroomListResponse, error)
	GetClassroom(ctx context.Context, id uuid.UUID) (*dto.ClassroomResponse, error)
	UpdateClassroom(ctx context.Context, id uuid.UUID, req dto.ClassroomRequest) (*dto.ClassroomResponse, error)
	DeleteClassroom(ctx context.Context, id uuid.UUID) error
	AssignStudents(ctx context.Context, id uuid.UUID, req dto.AssignStudentsRequest) (*dto.ClassroomResponse, error)
	RemoveStudent(ctx context.Context, id, studentID uuid.UUID) error
	MyClasses(ctx context.Context, auth authctx.AuthContext) (*dto.ClassroomListResponse, error)
}

type classroomService struct {
	repo     repository.ClassroomRepository
	accounts accountRepo.AccountRepository
}

func NewClassroomService(repo repository.ClassroomRepository, accounts accountRepo.AccountRepository) ClassroomService {
	return &classroomService{repo: repo, accounts: accounts}
}

func (s *classroomService) checkTeacher(ctx context.Context, teacherID *uuid.UUID) error {
	if teacherID == nil {
		return nil
	}
	teacher, err := s.accounts.FindByID(ctx, *teacherID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if teacher == nil || teacher.Role != entity.RoleProfessor {
		return apperror.Validation("L'enseignant sélectionné doit être un professeur")
	}
	return nil
}

func (s *classroomService) withRoster(ctx context.Context, classroom *entity.Classroom) (*dto.ClassroomResponse, error) {
	id := classroom.ID
	students, err := s.accounts.List(ctx, accountRepo.AccountFilter{
		Roles:       []entity.Role{entity.RoleStudent},
		ClassroomID: &id,
	})
	if err != nil {
		return nil, err
	}

	resp := dto.ToClassroomResponse(classroom)
	resp.Students = make([]commonDto.AccountSummary, 0, len(students))
	for i := range students {
		resp.Students = append(resp.Students, dto.Summary(&students[i]))
	}
	return &resp, nil
}

func (s *classroomService) CreateClassroom(ctx context.Context, req dto.ClassroomRequest) (*dto.ClassroomResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Le nom de la classe est requis")
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	classroom := &entity.Classroom{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		TeacherID:   req.TeacherID,
	}
	if err := s.repo.Create(ctx, classroom); err != nil {
		return nil, err
	}
	return s.GetClassroom(ctx, classroom.ID)
}

func (s *classroomService) GetAllClassrooms(ctx context.Context, search string) (*dto.ClassroomListResponse, error) {
	classrooms, err := s.repo.FindAll(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	out := make([]dto.ClassroomResponse, 0, len(classrooms))
	for i := range classrooms {
		out = append(out, dto.ToClassroomResponse(&classrooms[i]))
	}
	return &dto.ClassroomListResponse{Classrooms: out, Total: len(out)}, nil
}

func (s *classroomService) GetClassroom(ctx context.Context, id uuid.UUID) (*dto.ClassroomResponse, error) {
	classroom, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}
	return s.withRoster(ctx, classroom)
}

func (s *classroomService) UpdateClassroom(ctx context.Context, id uuid.UUID, req dto.ClassroomRequest) (*dto.ClassroomResponse, error) {
	classroom, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Le nom de la classe est requis")
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	classroom.Name = name
	classroom.Description = strings.TrimSpace(req.Description)
	classroom.TeacherID = req.TeacherID
	if err := s.repo.Update(ctx, classroom); err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}
	return s.GetClassroom(ctx, id)
}

// DeleteClassroom detaches the students. Subjects targeting the classroom
// go with it, their files are left to the orphan sweep.
func (s *classroomService) DeleteClassroom(ctx context.Context, id uuid.UUID) error {
	return apperror.FromDB(s.repo.Delete(ctx, id), msgNotFound)
}

func (s *classroomService) AssignStudents(ctx context.Context, id uuid.UUID, req dto.AssignStudentsRequest) (*dto.ClassroomResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}

	students, err := s.accounts.FindByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]bool, len(students))
	for _, st := range students {
		if st.Role == entity.RoleStudent {
			found[st.ID] = true
		}
	}
	for _, sid := range req.StudentIDs {
		if !found[sid] {
			return nil, apperror.Validation("Étudiant invalide: %s", sid)
		}
	}

	if err := s.accounts.AssignClassroom(ctx, id, req.StudentIDs); err != nil {
		return nil, err
	}
	return s.GetClassroom(ctx, id)
}

func (s *classroomService) RemoveStudent(ctx context.Context, id, studentID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.FromDB(err, msgNotFound)
	}
	return apperror.FromDB(s.accounts.RemoveFromClassroom(ctx, id, studentID), "Étudiant introuvable dans cette classe")
}

func (s *classroomService) MyClasses(ctx context.Context, auth authctx.AuthContext) (*dto.ClassroomListResponse, error) {
	if !auth.Is(entity.RoleProfessor) {
		return nil, apperror.ErrForbidden
	}

	classrooms, err := s.repo.FindByTeacher(ctx, auth.AccountID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ClassroomResponse, 0, len(classrooms))
	for i := range classrooms {
		resp, err := s.withRoster(ctx, &classrooms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return &dto.ClassroomListResponse{Classrooms: out, Total: len(out)}, nil
}
