package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/modules/evaluation"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
)

// SubjectInput is bound from the multipart form; dates are RFC3339.
type SubjectInput struct {
	Title          string                `form:"title" binding:"required,max=200"`
	Description    string                `form:"description" binding:"max=10000"`
	EvaluationType entity.EvaluationType `form:"evaluation_type" binding:"required"`
	DocumentType   entity.DocumentType   `form:"document_type" binding:"required"`
	StartDate      time.Time             `form:"start_date" binding:"required"`
	EndDate        time.Time             `form:"end_date" binding:"required"`
	ClassroomID    string                `form:"classroom_id" binding:"required"`
}

type SearchQuery struct {
	Q string `form:"q"`
}

type CorrectionSummary struct {
	Score       *float64  `json:"score"`
	Notes       string    `json:"notes"`
	CorrectedAt time.Time `json:"corrected_at"`
}

type SubmissionSummary struct {
	ID           uuid.UUID          `json:"id"`
	FileURL      string             `json:"file_url"`
	SubmittedAt  time.Time          `json:"submitted_at"`
	IsCorrecting bool               `json:"is_correcting"`
	IsCorrected  bool               `json:"is_corrected"`
	Correction   *CorrectionSummary `json:"correction,omitempty"`
}

type SubjectResponse struct {
	ID              uuid.UUID                 `json:"id"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	FileURL         string                    `json:"file_url"`
	EvaluationType  entity.EvaluationType     `json:"evaluation_type"`
	EvaluationLabel string                    `json:"evaluation_label"`
	DocumentType    entity.DocumentType       `json:"document_type"`
	StartDate       time.Time                 `json:"start_date"`
	EndDate         time.Time                 `json:"end_date"`
	ClassroomID     uuid.UUID                 `json:"classroom_id"`
	ClassroomName   string                    `json:"classroom_name,omitempty"`
	TeacherID       uuid.UUID                 `json:"teacher_id"`
	Teacher         *commonDto.AccountSummary `json:"teacher,omitempty"`
	Status          evaluation.Status         `json:"status"`
	Submission      *SubmissionSummary        `json:"submission,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

type SubjectListResponse struct {
	Subjects []SubjectResponse `json:"subjects"`
	Total    int               `json:"total"`
}

type GradeRow struct {
	Student    commonDto.AccountSummary `json:"student"`
	Submission *SubmissionSummary       `json:"submission"`
	Status     evaluation.Status        `json:"status"`
}

type GradesResponse struct {
	Subject SubjectResponse `json:"subject"`
	Grades  []GradeRow      `json:"grades"`
}

func ToSubmissionSummary(s *entity.Submission) *SubmissionSummary {
	if s == nil {
		return nil
	}
	out := &SubmissionSummary{
		ID:           s.ID,
		FileURL:      s.FileURL,
		SubmittedAt:  s.SubmittedAt,
		IsCorrecting: s.IsCorrecting,
		IsCorrected:  s.IsCorrected,
	}
	if s.Correction != nil {
		out.Correction = &CorrectionSummary{
			Score:       s.Correction.Score,
			Notes:       s.Correction.Notes,
			CorrectedAt: s.Correction.CorrectedAt,
		}
	}
	return out
}

func ToSubjectResponse(s *entity.Subject, status evaluation.Status) SubjectResponse {
	resp := SubjectResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		FileURL:         s.FileURL,
		EvaluationType:  s.EvaluationType,
		EvaluationLabel: s.EvaluationType.Label(),
		DocumentType:    s.DocumentType,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		ClassroomID:     s.ClassroomID,
		TeacherID:       s.TeacherID,
		Status:          status,
		CreatedAt:       s.CreatedAt,
	}
	if s.Classroom != nil {
		resp.ClassroomName = s.Classroom.Name
	}
	if s.Teacher != nil {
		resp.Teacher = &commonDto.AccountSummary{
			ID:        s.Teacher.ID.String(),
			FirstName: s.Teacher.FirstName,
			LastName:  s.Teacher.LastName,
		}
	}
	return resp
}
