package department

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"anoa.com/campusadmin/internal/modules/department/dto"
	"anoa.com/campusadmin/internal/modules/department/repository"
	"anoa.com/campusadmin/pkg/apperror"
	commonDto "anoa.com/campusadmin/pkg/dto"
)

const (
	msgNotFound           = "Département introuvable"
	msgManagerUnavailable = "Le responsable sélectionné n'est pas disponible"
)

type DepartmentService interface {
	CreateDepartment(ctx context.Context, req dto.DepartmentRequest) (*dto.DepartmentResponse, error)
	GetAllDepartments(ctx context.Context, filter commonDto.PageFilter) (*dto.DepartmentListResponse, error)
	GetDepartment(ctx context.Context, id uuid.UUID) (*dto.DepartmentResponse, error)
	UpdateDepartment(ctx context.Context, id uuid.UUID, req dto.DepartmentRequest) (*dto.DepartmentResponse, error)
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
}

type departmentService struct {
	repo     repository.DepartmentRepository
	accounts accountRepo.AccountRepository
}

func NewDepartmentService(repo repository.DepartmentRepository, accounts accountRepo.AccountRepository) DepartmentService {
	return &departmentService{repo: repo, accounts: accounts}
}

// checkManager accepts a manager that is an ADMIN_DPT heading no department
// other than self.
func (s *departmentService) checkManager(ctx context.Context, managerID *uuid.UUID, self uuid.UUID) error {
	if managerID == nil {
		return nil
	}

	manager, err := s.accounts.FindByID(ctx, *managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Validation(msgManagerUnavailable)
		}
		return err
	}
	if manager.Role != entity.RoleDepartmentAdmin {
		return apperror.Validation(msgManagerUnavailable)
	}

	headed, err := s.repo.FindByManager(ctx, *managerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if headed != nil && headed.ID != self {
		return apperror.Validation(msgManagerUnavailable)
	}
	return nil
}

// translate maps the unique index on manager_id, hit by a concurrent
// assignment, to a conflict.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(msgManagerUnavailable)
	}
	return apperror.FromDB(err, msgNotFound)
}

func (s *departmentService) CreateDepartment(ctx context.Context, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Le nom du département est requis")
	}
	if err := s.checkManager(ctx, req.ManagerID, uuid.Nil); err != nil {
		return nil, err
	}

	department := &entity.Department{Name: name, ManagerID: req.ManagerID}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, translate(err)
	}
	return s.GetDepartment(ctx, department.ID)
}

func (s *departmentService) GetAllDepartments(ctx context.Context, filter commonDto.PageFilter) (*dto.DepartmentListResponse, error) {
	offset := filter.Normalize()

	departments, total, err := s.repo.FindAll(ctx, strings.TrimSpace(filter.Search), filter.Limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DepartmentResponse, 0, len(departments))
	for i := range departments {
		out = append(out, dto.ToDepartmentResponse(&departments[i]))
	}

	return &dto.DepartmentListResponse{
		Departments: out,
		Total:       total,
		CurrentPage: filter.Page,
		TotalPages:  commonDto.TotalPages(total, filter.Limit),
	}, nil
}

func (s *departmentService) GetDepartment(ctx context.Context, id uuid.UUID) (*dto.DepartmentResponse, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}
	resp := dto.ToDepartmentResponse(department)
	return &resp, nil
}

func (s *departmentService) UpdateDepartment(ctx context.Context, id uuid.UUID, req dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Le nom du département est requis")
	}
	if err := s.checkManager(ctx, req.ManagerID, department.ID); err != nil {
		return nil, err
	}

	department.Name = name
	department.ManagerID = req.ManagerID
	if err := s.repo.Update(ctx, department); err != nil {
		return nil, translate(err)
	}
	return s.GetDepartment(ctx, id)
}

// DeleteDepartment keeps the manager account, which becomes available
// again; staff and requests lose their department.
func (s *departmentService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return apperror.FromDB(s.repo.Delete(ctx, id), msgNotFound)
}
