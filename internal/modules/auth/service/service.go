package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	accountDto "anoa.com/campusadmin/internal/modules/account/dto"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"anoa.com/campusadmin/internal/modules/auth/dto"
	departmentRepo "anoa.com/campusadmin/internal/modules/department/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/ratelimiter"
	"anoa.com/campusadmin/pkg/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const msgInvalidCredentials = "Identifiants invalides"

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Me(ctx context.Context, auth authctx.AuthContext) (*accountDto.AccountResponse, error)
	ChangePassword(ctx context.Context, auth authctx.AuthContext, input dto.ChangePasswordInput) error
}

type authService struct {
	repo        accountRepo.AccountRepository
	departments departmentRepo.DepartmentRepository
	tokens      *token.Manager
	limiter     *ratelimiter.Limiter
	hashCost    int
}

func NewAuthService(repo accountRepo.AccountRepository, departments departmentRepo.DepartmentRepository, tokens *token.Manager, limiter *ratelimiter.Limiter) AuthService {
	return &authService{
		repo:        repo,
		departments: departments,
		tokens:      tokens,
		limiter:     limiter,
		hashCost:    bcrypt.DefaultCost,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := s.limiter.Check(ctx, email); err != nil {
		var rateErr *ratelimiter.RateLimitError
		if errors.As(err, &rateErr) {
			return nil, err
		}
		log.Printf("[auth] rate limit check failed: %v", err)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, email)
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, email)
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		log.Printf("[auth] failed to reset login attempts: %v", err)
	}

	return s.buildAuthResponse(ctx, user)
}

func (s *authService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.Hit(ctx, email); err != nil {
		log.Printf("[auth] failed to record login attempt: %v", err)
	}
}

// department resolves the tenant carried by the session: the department a
// manager heads, or the one a staff member belongs to.
func (s *authService) department(ctx context.Context, user *entity.Account) (*entity.Department, error) {
	var (
		department *entity.Department
		err        error
	)
	switch user.Role {
	case entity.RoleDepartmentAdmin:
		department, err = s.departments.FindByManager(ctx, user.ID)
	case entity.RoleStaff:
		if user.DepartmentID == nil {
			return nil, nil
		}
		department, err = s.departments.FindByID(ctx, *user.DepartmentID)
	default:
		return nil, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return department, err
}

func (s *authService) profile(ctx context.Context, user *entity.Account) (*accountDto.AccountResponse, error) {
	department, err := s.department(ctx, user)
	if err != nil {
		return nil, err
	}
	resp := accountDto.ToAccountResponse(user)
	resp.DepartmentID = nil
	if department != nil {
		id := department.ID
		resp.DepartmentID = &id
		resp.DepartmentName = department.Name
	}
	return &resp, nil
}

func (s *authService) buildAuthResponse(ctx context.Context, user *entity.Account) (*dto.AuthResponse, error) {
	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	claims := token.Claims{
		Role:           string(user.Role),
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		DepartmentName: profile.DepartmentName,
	}
	if profile.DepartmentID != nil {
		claims.DepartmentID = profile.DepartmentID.String()
	}
	if user.Role == entity.RoleStudent && user.ClassroomID != nil {
		claims.ClassroomID = user.ClassroomID.String()
	}

	accessToken, _, err := s.tokens.Issue(user.ID, claims)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        profile,
	}, nil
}

func (s *authService) Me(ctx context.Context, auth authctx.AuthContext) (*accountDto.AccountResponse, error) {
	user, err := s.repo.FindByID(ctx, auth.AccountID)
	if err != nil {
		return nil, apperror.FromDB(err, "Utilisateur introuvable")
	}
	return s.profile(ctx, user)
}

func (s *authService) ChangePassword(ctx context.Context, auth authctx.AuthContext, input dto.ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, auth.AccountID)
	if err != nil {
		return apperror.FromDB(err, "Utilisateur introuvable")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperror.Validation("Mot de passe actuel incorrect")
	}
	if len(input.NewPassword) < 8 {
		return apperror.Validation("Le nouveau mot de passe doit contenir au moins 8 caractères")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.hashCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	return s.repo.Update(ctx, user)
}
