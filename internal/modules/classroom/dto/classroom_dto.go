package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
)

type ClassroomRequest struct {
	Name        string     `json:"name" binding:"required,max=100"`
	Description string     `json:"description" binding:"max=1000"`
	TeacherID   *uuid.UUID `json:"teacher_id"`
}

type AssignStudentsRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids" binding:"required,min=1"`
}

type ClassroomResponse struct {
	ID          uuid.UUID                  `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	TeacherID   *uuid.UUID                 `json:"teacher_id"`
	Teacher     *commonDto.AccountSummary  `json:"teacher"`
	Students    []commonDto.AccountSummary `json:"students,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
}

type ClassroomListResponse struct {
	Classrooms []ClassroomResponse `json:"classrooms"`
	Total      int                 `json:"total"`
}

func Summary(a *entity.Account) commonDto.AccountSummary {
	return commonDto.AccountSummary{
		ID:        a.ID.String(),
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
	}
}

func ToClassroomResponse(c *entity.Classroom) ClassroomResponse {
	resp := ClassroomResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		TeacherID:   c.TeacherID,
		CreatedAt:   c.CreatedAt,
	}
	if c.Teacher != nil {
		teacher := Summary(c.Teacher)
		resp.Teacher = &teacher
	}
	return resp
}
