package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
)

type CorrectionRequest struct {
	Score *float64 `json:"score" binding:"required"`
	Notes string   `json:"notes"`
}

type CorrectionResponse struct {
	ID             uuid.UUID             `json:"id"`
	SubmissionID   uuid.UUID             `json:"submission_id"`
	Score          *float64              `json:"score"`
	Notes          string                `json:"notes"`
	EvaluationType entity.EvaluationType `json:"evaluation_type"`
	CorrectedAt    time.Time             `json:"corrected_at"`
}

// ResultResponse is one line of a student's transcript.
type ResultResponse struct {
	SubmissionID    uuid.UUID             `json:"submission_id"`
	SubjectID       uuid.UUID             `json:"subject_id"`
	SubjectTitle    string                `json:"subject_title"`
	EvaluationType  entity.EvaluationType `json:"evaluation_type"`
	EvaluationLabel string                `json:"evaluation_label"`
	Score           *float64              `json:"score"`
	Notes           string                `json:"notes"`
	CorrectedAt     time.Time             `json:"corrected_at"`
}

type ResultListResponse struct {
	Results []ResultResponse `json:"results"`
	Total   int              `json:"total"`
}

func ToCorrectionResponse(c *entity.Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:             c.ID,
		SubmissionID:   c.SubmissionID,
		Score:          c.Score,
		Notes:          c.Notes,
		EvaluationType: c.EvaluationType,
		CorrectedAt:    c.CorrectedAt,
	}
}

func ToResultResponse(c *entity.Correction) ResultResponse {
	resp := ResultResponse{
		SubmissionID:    c.SubmissionID,
		EvaluationType:  c.EvaluationType,
		EvaluationLabel: c.EvaluationType.Label(),
		Score:           c.Score,
		Notes:           c.Notes,
		CorrectedAt:     c.CorrectedAt,
	}
	if c.Submission != nil && c.Submission.Subject != nil {
		resp.SubjectID = c.Submission.Subject.ID
		resp.SubjectTitle = c.Submission.Subject.Title
	}
	return resp
}
