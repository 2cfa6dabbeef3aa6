package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/modules/evaluation"
	evalDto "anoa.com/campusadmin/internal/modules/evaluation/dto"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
)

type SubmissionResponse struct {
	ID             uuid.UUID                  `json:"id"`
	SubjectID      uuid.UUID                  `json:"subject_id"`
	SubjectTitle   string                     `json:"subject_title,omitempty"`
	EvaluationType entity.EvaluationType      `json:"evaluation_type,omitempty"`
	FileURL        string                     `json:"file_url"`
	SubmittedAt    time.Time                  `json:"submitted_at"`
	Student        *commonDto.AccountSummary  `json:"student,omitempty"`
	Status         evaluation.Status          `json:"status"`
	Correction     *evalDto.CorrectionSummary `json:"correction,omitempty"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int                  `json:"total"`
}

func ToSubmissionResponse(s *entity.Submission, status evaluation.Status) SubmissionResponse {
	resp := SubmissionResponse{
		ID:          s.ID,
		SubjectID:   s.SubjectID,
		FileURL:     s.FileURL,
		SubmittedAt: s.SubmittedAt,
		Status:      status,
	}
	if s.Subject != nil {
		resp.SubjectTitle = s.Subject.Title
		resp.EvaluationType = s.Subject.EvaluationType
	}
	if s.Student != nil {
		resp.Student = &commonDto.AccountSummary{
			ID:        s.Student.ID.String(),
			FirstName: s.Student.FirstName,
			LastName:  s.Student.LastName,
		}
	}
	if summary := evalDto.ToSubmissionSummary(s); summary != nil {
		resp.Correction = summary.Correction
	}
	return resp
}
