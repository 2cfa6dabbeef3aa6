package account

import (
	"context"
	"errors"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/modules/account/dto"
	"anoa.com/campusadmin/internal/modules/account/repository"
	classroomRepo "anoa.com/campusadmin/internal/modules/classroom/repository"
	departmentRepo "anoa.com/campusadmin/internal/modules/department/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgEmailTaken     = "Cet email est déjà utilisé"
	msgEmailInvalid   = "Format d'email invalide"
	msgFieldsRequired = "Tous les champs sont requis"
)

// AccountService provisions accounts for the three administrative scopes:
// department managers (super admin), department staff (department admin)
// and school accounts (admin).
type AccountService interface {
	CreateManager(ctx context.Context, req dto.CreateAccountRequest) (*dto.AccountResponse, error)
	ListManagers(ctx context.Context, search string) (*dto.ManagerListResponse, error)
	ListAvailableManagers(ctx context.Context) ([]dto.AccountResponse, error)
	UpdateManager(ctx context.Context, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error)
	DeleteManager(ctx context.Context, id uuid.UUID) error

	CreateStaff(ctx context.Context, auth authctx.AuthContext, req dto.CreateAccountRequest) (*dto.AccountResponse, error)
	ListStaff(ctx context.Context, auth authctx.AuthContext, search string) (*dto.UserListResponse, error)
	UpdateStaff(ctx context.Context, auth authctx.AuthContext, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error)
	DeleteStaff(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error

	CreateSchoolAccount(ctx context.Context, req dto.CreateSchoolAccountRequest) (*dto.AccountResponse, error)
	ListSchoolAccounts(ctx context.Context, filter dto.AccountListFilter) (*dto.AccountListResponse, error)
	UpdateSchoolAccount(ctx context.Context, id uuid.UUID, req dto.UpdateSchoolAccountRequest) (*dto.AccountResponse, error)
	DeleteSchoolAccount(ctx context.Context, id uuid.UUID) error
}

type accountService struct {
	repo        repository.AccountRepository
	departments departmentRepo.DepartmentRepository
	classrooms  classroomRepo.ClassroomRepository
	hashCost    int
}

func NewAccountService(repo repository.AccountRepository, departments departmentRepo.DepartmentRepository, classrooms classroomRepo.ClassroomRepository) AccountService {
	return &accountService{
		repo:        repo,
		departments: departments,
		classrooms:  classrooms,
		hashCost:    bcrypt.DefaultCost,
	}
}

type identity struct {
	firstName, lastName, email string
}

func normalize(firstName, lastName, email string) (identity, error) {
	id := identity{
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     strings.ToLower(strings.TrimSpace(email)),
	}
	if id.firstName == "" || id.lastName == "" || id.email == "" {
		return id, apperror.Validation(msgFieldsRequired)
	}
	if !validator.IsEmail(id.email) {
		return id, apperror.Validation(msgEmailInvalid)
	}
	return id, nil
}

func (s *accountService) hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", apperror.Validation(msgFieldsRequired)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *accountService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return apperror.Conflict(msgEmailTaken)
	}
	return nil
}

func duplicateEmail(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(msgEmailTaken)
	}
	return err
}

func (s *accountService) create(ctx context.Context, req dto.CreateAccountRequest, role entity.Role, departmentID, classroomID *uuid.UUID) (*entity.Account, error) {
	id, err := normalize(req.FirstName, req.LastName, req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, id.email, uuid.Nil); err != nil {
		return nil, err
	}
	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &entity.Account{
		FirstName:    id.firstName,
		LastName:     id.lastName,
		Email:        id.email,
		PasswordHash: hashed,
		Role:         role,
		DepartmentID: departmentID,
		ClassroomID:  classroomID,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, duplicateEmail(err)
	}
	return account, nil
}

func (s *accountService) update(ctx context.Context, account *entity.Account, req dto.UpdateAccountRequest) error {
	id, err := normalize(req.FirstName, req.LastName, req.Email)
	if err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, id.email, account.ID); err != nil {
		return err
	}
	account.FirstName = id.firstName
	account.LastName = id.lastName
	account.Email = id.email

	if req.Password != "" {
		hashed, err := s.hash(req.Password)
		if err != nil {
			return err
		}
		account.PasswordHash = hashed
	}
	return duplicateEmail(s.repo.Update(ctx, account))
}

// findWithRole returns NotFound when the account exists with another role so
// that one scope cannot probe accounts of another.
func (s *accountService) findWithRole(ctx context.Context, id uuid.UUID, roles ...entity.Role) (*entity.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Utilisateur introuvable")
	}
	for _, r := range roles {
		if account.Role == r {
			return account, nil
		}
	}
	return nil, apperror.NotFound("Utilisateur introuvable")
}

// Department managers

func (s *accountService) CreateManager(ctx context.Context, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	account, err := s.create(ctx, req, entity.RoleDepartmentAdmin, nil, nil)
	if err != nil {
		return nil, err
	}
	resp := dto.ToAccountResponse(account)
	return &resp, nil
}

func (s *accountService) managerResponses(ctx context.Context, managers []entity.Account) ([]dto.AccountResponse, error) {
	ids := make([]uuid.UUID, len(managers))
	for i, m := range managers {
		ids[i] = m.ID
	}
	departments, err := s.departments.FindByManagerIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	headed := make(map[uuid.UUID]entity.Department, len(departments))
	for _, d := range departments {
		headed[*d.ManagerID] = d
	}

	out := make([]dto.AccountResponse, 0, len(managers))
	for i := range managers {
		resp := dto.ToAccountResponse(&managers[i])
		if d, ok := headed[managers[i].ID]; ok {
			deptID := d.ID
			resp.DepartmentID = &deptID
			resp.DepartmentName = d.Name
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *accountService) ListManagers(ctx context.Context, search string) (*dto.ManagerListResponse, error) {
	managers, err := s.repo.List(ctx, repository.AccountFilter{
		Roles:  []entity.Role{entity.RoleDepartmentAdmin},
		Search: search,
	})
	if err != nil {
		return nil, err
	}
	out, err := s.managerResponses(ctx, managers)
	if err != nil {
		return nil, err
	}
	return &dto.ManagerListResponse{Managers: out, Total: len(out)}, nil
}

func (s *accountService) ListAvailableManagers(ctx context.Context) ([]dto.AccountResponse, error) {
	all, err := s.ListManagers(ctx, "")
	if err != nil {
		return nil, err
	}
	available := make([]dto.AccountResponse, 0, len(all.Managers))
	for _, m := range all.Managers {
		if m.DepartmentID == nil {
			available = append(available, m)
		}
	}
	return available, nil
}

func (s *accountService) UpdateManager(ctx context.Context, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	account, err := s.findWithRole(ctx, id, entity.RoleDepartmentAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, account, req); err != nil {
		return nil, err
	}
	out, err := s.managerResponses(ctx, []entity.Account{*account})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// DeleteManager removes the account; the department it headed survives
// without a manager.
func (s *accountService) DeleteManager(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findWithRole(ctx, id, entity.RoleDepartmentAdmin); err != nil {
		return err
	}
	return apperror.FromDB(s.repo.Delete(ctx, id), "Utilisateur introuvable")
}

// Department staff

// managedDepartment resolves the department the caller heads from storage so
// that a reassignment takes effect without a new session.
func (s *accountService) managedDepartment(ctx context.Context, auth authctx.AuthContext) (*entity.Department, error) {
	if !auth.Is(entity.RoleDepartmentAdmin) {
		return nil, apperror.ErrForbidden
	}
	department, err := s.departments.FindByManager(ctx, auth.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Forbidden("Vous ne gérez aucun département")
		}
		return nil, err
	}
	return department, nil
}

func (s *accountService) findStaff(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*entity.Account, *entity.Department, error) {
	department, err := s.managedDepartment(ctx, auth)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.findWithRole(ctx, id, entity.RoleStaff)
	if err != nil {
		return nil, nil, err
	}
	if account.DepartmentID == nil || *account.DepartmentID != department.ID {
		return nil, nil, apperror.ErrForbidden
	}
	return account, department, nil
}

func staffResponse(account *entity.Account, department *entity.Department) dto.AccountResponse {
	resp := dto.ToAccountResponse(account)
	resp.DepartmentName = department.Name
	return resp
}

func (s *accountService) CreateStaff(ctx context.Context, auth authctx.AuthContext, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	department, err := s.managedDepartment(ctx, auth)
	if err != nil {
		return nil, err
	}
	deptID := department.ID
	account, err := s.create(ctx, req, entity.RoleStaff, &deptID, nil)
	if err != nil {
		return nil, err
	}
	resp := staffResponse(account, department)
	return &resp, nil
}

func (s *accountService) ListStaff(ctx context.Context, auth authctx.AuthContext, search string) (*dto.UserListResponse, error) {
	department, err := s.managedDepartment(ctx, auth)
	if err != nil {
		return nil, err
	}
	deptID := department.ID
	staff, err := s.repo.List(ctx, repository.AccountFilter{
		Roles:        []entity.Role{entity.RoleStaff},
		DepartmentID: &deptID,
		Search:       search,
	})
	if err != nil {
		return nil, err
	}

	users := make([]dto.AccountResponse, 0, len(staff))
	for i := range staff {
		users = append(users, staffResponse(&staff[i], department))
	}
	return &dto.UserListResponse{Users: users, Total: len(users)}, nil
}

func (s *accountService) UpdateStaff(ctx context.Context, auth authctx.AuthContext, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	account, department, err := s.findStaff(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, account, req); err != nil {
		return nil, err
	}
	resp := staffResponse(account, department)
	return &resp, nil
}

func (s *accountService) DeleteStaff(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error {
	if _, _, err := s.findStaff(ctx, auth, id); err != nil {
		return err
	}
	return apperror.FromDB(s.repo.Delete(ctx, id), "Utilisateur introuvable")
}

// School accounts

func schoolRole(role entity.Role) error {
	switch role {
	case entity.RoleProfessor, entity.RoleStudent:
		return nil
	}
	return apperror.Validation("Rôle invalide: seuls PROFESSOR et STUDENT sont acceptés")
}

func (s *accountService) checkClassroom(ctx context.Context, role entity.Role, classroomID *uuid.UUID) error {
	if classroomID == nil {
		return nil
	}
	if role != entity.RoleStudent {
		return apperror.Validation("Seul un étudiant peut être inscrit dans une classe")
	}
	if _, err := s.classrooms.FindByID(ctx, *classroomID); err != nil {
		return apperror.FromDB(err, "Classe introuvable")
	}
	return nil
}

func (s *accountService) CreateSchoolAccount(ctx context.Context, req dto.CreateSchoolAccountRequest) (*dto.AccountResponse, error) {
	if err := schoolRole(req.Role); err != nil {
		return nil, err
	}
	if err := s.checkClassroom(ctx, req.Role, req.ClassroomID); err != nil {
		return nil, err
	}
	account, err := s.create(ctx, req.CreateAccountRequest, req.Role, nil, req.ClassroomID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToAccountResponse(account)
	return &resp, nil
}

func (s *accountService) ListSchoolAccounts(ctx context.Context, filter dto.AccountListFilter) (*dto.AccountListResponse, error) {
	roles := []entity.Role{entity.RoleProfessor, entity.RoleStudent}
	if filter.Role != "" {
		role := entity.Role(strings.ToUpper(filter.Role))
		if err := schoolRole(role); err != nil {
			return nil, err
		}
		roles = []entity.Role{role}
	}

	accounts, err := s.repo.List(ctx, repository.AccountFilter{Roles: roles, Search: filter.Search})
	if err != nil {
		return nil, err
	}
	out := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, dto.ToAccountResponse(&accounts[i]))
	}
	return &dto.AccountListResponse{Accounts: out, Total: len(out)}, nil
}

func (s *accountService) UpdateSchoolAccount(ctx context.Context, id uuid.UUID, req dto.UpdateSchoolAccountRequest) (*dto.AccountResponse, error) {
	account, err := s.findWithRole(ctx, id, entity.RoleProfessor, entity.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.checkClassroom(ctx, account.Role, req.ClassroomID); err != nil {
		return nil, err
	}
	// An absent classroom_id keeps the current classroom; students leave a
	// classroom through DELETE /api/classrooms/{id}/students/{studentId}.
	if account.Role == entity.RoleStudent && req.ClassroomID != nil {
		account.ClassroomID = req.ClassroomID
	}
	if err := s.update(ctx, account, req.UpdateAccountRequest); err != nil {
		return nil, err
	}
	resp := dto.ToAccountResponse(account)
	return &resp, nil
}

func (s *accountService) DeleteSchoolAccount(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findWithRole(ctx, id, entity.RoleProfessor, entity.RoleStudent); err != nil {
		return err
	}
	return apperror.FromDB(s.repo.Delete(ctx, id), "Utilisateur introuvable")
}
