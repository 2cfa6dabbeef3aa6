package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
)

type CreateAccountRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=150"`
	Password  string `json:"password" binding:"required,min=8"`
}

// UpdateAccountRequest re-hashes the password only when one is supplied.
type UpdateAccountRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=150"`
	Password  string `json:"password" binding:"omitempty,min=8"`
}

type CreateSchoolAccountRequest struct {
	CreateAccountRequest
	Role        entity.Role `json:"role" binding:"required"`
	ClassroomID *uuid.UUID  `json:"classroom_id"`
}

type UpdateSchoolAccountRequest struct {
	UpdateAccountRequest
	ClassroomID *uuid.UUID `json:"classroom_id"`
}

type AccountListFilter struct {
	Search string `form:"search"`
	Role   string `form:"role"`
}

type AccountResponse struct {
	ID             uuid.UUID   `json:"id"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	Role           entity.Role `json:"role"`
	DepartmentID   *uuid.UUID  `json:"department_id,omitempty"`
	DepartmentName string      `json:"department_name,omitempty"`
	ClassroomID    *uuid.UUID  `json:"classroom_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

type ManagerListResponse struct {
	Managers []AccountResponse `json:"managers"`
	Total    int               `json:"total"`
}

type UserListResponse struct {
	Users []AccountResponse `json:"users"`
	Total int               `json:"total"`
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

func ToAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		Role:         a.Role,
		DepartmentID: a.DepartmentID,
		ClassroomID:  a.ClassroomID,
		CreatedAt:    a.CreatedAt,
	}
}
