package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
)

type DepartmentRequest struct {
	Name      string     `json:"name" binding:"required,max=100"`
	ManagerID *uuid.UUID `json:"manager_id"`
}

type DepartmentResponse struct {
	ID        uuid.UUID                 `json:"id"`
	Name      string                    `json:"name"`
	ManagerID *uuid.UUID                `json:"manager_id"`
	Manager   *commonDto.AccountSummary `json:"manager"`
	CreatedAt time.Time                 `json:"created_at"`
}

type DepartmentListResponse struct {
	Departments []DepartmentResponse `json:"departments"`
	Total       int64                `json:"total"`
	CurrentPage int                  `json:"current_page"`
	TotalPages  int                  `json:"total_pages"`
}

func ToDepartmentResponse(d *entity.Department) DepartmentResponse {
	resp := DepartmentResponse{
		ID:        d.ID,
		Name:      d.Name,
		ManagerID: d.ManagerID,
		CreatedAt: d.CreatedAt,
	}
	if d.Manager != nil {
		resp.Manager = &commonDto.AccountSummary{
			ID:        d.Manager.ID.String(),
			FirstName: d.Manager.FirstName,
			LastName:  d.Manager.LastName,
			Email:     d.Manager.Email,
		}
	}
	return resp
}
