package request

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	departmentRepo "anoa.com/campusadmin/internal/modules/department/repository"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"
	"anoa.com/campusadmin/internal/modules/request/dto"
	"anoa.com/campusadmin/internal/modules/request/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const msgNotFound = "Demande introuvable"

type RequestService interface {
	CreateRequest(ctx context.Context, auth authctx.AuthContext, req dto.CreateRequestRequest) (*dto.RequestResponse, error)
	ListRequests(ctx context.Context, auth authctx.AuthContext, search string) (*dto.RequestListResponse, error)
	UpdateStatus(ctx context.Context, auth authctx.AuthContext, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.RequestResponse, error)
	DeleteRequest(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error
}

type requestService struct {
	repo          repository.RequestRepository
	accounts      accountRepo.AccountRepository
	departments   departmentRepo.DepartmentRepository
	notifications notifService.NotificationService
}

func NewRequestService(
	repo repository.RequestRepository,
	accounts accountRepo.AccountRepository,
	departments departmentRepo.DepartmentRepository,
	notifications notifService.NotificationService,
) RequestService {
	return &requestService{
		repo:          repo,
		accounts:      accounts,
		departments:   departments,
		notifications: notifications,
	}
}

// TotalAmount is the exact product; nothing is rounded so the stored total
// always matches quantity times unit price.
func TotalAmount(quantity int, unitPrice float64) float64 {
	return float64(quantity) * unitPrice
}

// callerDepartment reads the tenant from storage: the headed department for
// a manager, the home department for staff, none otherwise.
func (s *requestService) callerDepartment(ctx context.Context, auth authctx.AuthContext) (*uuid.UUID, error) {
	switch auth.Role {
	case entity.RoleDepartmentAdmin:
		department, err := s.departments.FindByManager(ctx, auth.AccountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		id := department.ID
		return &id, nil
	case entity.RoleStaff:
		account, err := s.accounts.FindByID(ctx, auth.AccountID)
		if err != nil {
			return nil, apperror.FromDB(err, "Utilisateur introuvable")
		}
		return account.DepartmentID, nil
	}
	return nil, nil
}

func (s *requestService) CreateRequest(ctx context.Context, auth authctx.AuthContext, req dto.CreateRequestRequest) (*dto.RequestResponse, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" {
		return nil, apperror.Validation("Le nom et la catégorie sont requis")
	}
	if req.Quantity <= 0 {
		return nil, apperror.Validation("La quantité doit être positive")
	}
	if req.UnitPrice <= 0 {
		return nil, apperror.Validation("Le prix unitaire doit être positif")
	}

	departmentID, err := s.callerDepartment(ctx, auth)
	if err != nil {
		return nil, err
	}

	request := &entity.Request{
		Name:         name,
		Category:     category,
		Description:  strings.TrimSpace(req.Description),
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		TotalAmount:  TotalAmount(req.Quantity, req.UnitPrice),
		Status:       entity.RequestPending,
		UserID:       auth.AccountID,
		DepartmentID: departmentID,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, request.ID)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}
	resp := dto.ToRequestResponse(created)
	return &resp, nil
}

func (s *requestService) ListRequests(ctx context.Context, auth authctx.AuthContext, search string) (*dto.RequestListResponse, error) {
	filter := repository.RequestFilter{Search: strings.TrimSpace(search)}
	if !auth.Is(entity.RoleSuperAdmin) {
		userID := auth.AccountID
		filter.UserID = &userID
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, dto.ToRequestResponse(&requests[i]))
	}
	return &dto.RequestListResponse{Requests: out, Total: len(out)}, nil
}

func (s *requestService) UpdateStatus(ctx context.Context, auth authctx.AuthContext, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.RequestResponse, error) {
	if !auth.Is(entity.RoleSuperAdmin) {
		return nil, apperror.ErrForbidden
	}
	if req.Status != entity.RequestApproved && req.Status != entity.RequestRejected {
		return nil, apperror.Validation("Statut invalide")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}
	if existing.Status != entity.RequestPending {
		return nil, apperror.Conflict("Cette demande a déjà été traitée")
	}

	// The conditional update settles two admins deciding at once.
	updated, err := s.repo.UpdateStatus(ctx, id, entity.RequestPending, req.Status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperror.Conflict("Cette demande a déjà été traitée")
	}
	existing.Status = req.Status

	s.notifyOwner(ctx, existing)

	resp := dto.ToRequestResponse(existing)
	return &resp, nil
}

func (s *requestService) notifyOwner(ctx context.Context, request *entity.Request) {
	verdict := "approuvée"
	if request.Status == entity.RequestRejected {
		verdict = "rejetée"
	}
	requestID := request.ID
	err := s.notifications.CreateNotification(ctx, &entity.Notification{
		UserID:      request.UserID,
		Type:        entity.NotificationRequestStatusChanged,
		Title:       "Demande " + verdict,
		Message:     fmt.Sprintf("Votre demande « %s » a été %s", request.Name, verdict),
		ReferenceID: &requestID,
	})
	if err != nil {
		log.Printf("[request] failed to notify %s: %v", request.UserID, err)
	}
}

func (s *requestService) DeleteRequest(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.FromDB(err, msgNotFound)
	}

	if !auth.Is(entity.RoleSuperAdmin) {
		if request.UserID != auth.AccountID {
			return apperror.ErrForbidden
		}
		if request.Status != entity.RequestPending {
			return apperror.Forbidden("Seule une demande en attente peut être supprimée")
		}
	}

	return apperror.FromDB(s.repo.Delete(ctx, id), msgNotFound)
}
