package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
)

// CreateRequestRequest carries no total; a total_amount sent by the client
// is ignored.
type CreateRequestRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Category    string  `json:"category" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=5000"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status entity.RequestStatus `json:"status" binding:"required,oneof=APPROVED REJECTED"`
}

type RequestResponse struct {
	ID             uuid.UUID                 `json:"id"`
	Name           string                    `json:"name"`
	Category       string                    `json:"category"`
	Description    string                    `json:"description"`
	Quantity       int                       `json:"quantity"`
	UnitPrice      float64                   `json:"unit_price"`
	TotalAmount    float64                   `json:"total_amount"`
	Status         entity.RequestStatus      `json:"status"`
	User           *commonDto.AccountSummary `json:"user,omitempty"`
	DepartmentID   *uuid.UUID                `json:"department_id"`
	DepartmentName string                    `json:"department_name,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

type RequestListResponse struct {
	Requests []RequestResponse `json:"requests"`
	Total    int               `json:"total"`
}

func ToRequestResponse(r *entity.Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Description:  r.Description,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		TotalAmount:  r.TotalAmount,
		Status:       r.Status,
		DepartmentID: r.DepartmentID,
		CreatedAt:    r.CreatedAt,
	}
	if r.User != nil {
		resp.User = &commonDto.AccountSummary{
			ID:        r.User.ID.String(),
			FirstName: r.User.FirstName,
			LastName:  r.User.LastName,
			Email:     r.User.Email,
		}
	}
	if r.Department != nil {
		resp.DepartmentName = r.Department.Name
	}
	return resp
}
