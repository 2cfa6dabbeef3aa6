package dto

import (
	"time"

	"anoa.com/campusadmin/internal/entity"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
)

type MonthlyRequests struct {
	Month    string `json:"month"`
	Total    int64  `json:"total"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`
}

// RequestStats is served to super admins and, scoped to their department,
// to department admins.
type RequestStats struct {
	TotalUsers       int64             `json:"total_users"`
	TotalDepartments int64             `json:"total_departments"`
	TotalRequests    int64             `json:"total_requests"`
	PendingRequests  int64             `json:"pending_requests"`
	ApprovedRequests int64             `json:"approved_requests"`
	RejectedRequests int64             `json:"rejected_requests"`
	MonthlyRequests  []MonthlyRequests `json:"monthly_requests"`
}

type EvaluationTypeCount struct {
	Type  entity.EvaluationType `json:"type"`
	Label string                `json:"label"`
	Count int64                 `json:"count"`
}

type EvaluationTypeScore struct {
	Type         entity.EvaluationType `json:"type"`
	Label        string                `json:"label"`
	AverageScore float64               `json:"average_score"`
}

type ClassroomStat struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	StudentCount    int64     `json:"student_count"`
	EvaluationCount int64     `json:"evaluation_count"`
	CompletionRate  float64   `json:"completion_rate"`
	AverageScore    *float64  `json:"average_score"`
}

type SchoolStats struct {
	TotalStudents     int64                 `json:"total_students"`
	TotalProfessors   int64                 `json:"total_professors"`
	TotalEvaluations  int64                 `json:"total_evaluations"`
	TotalSubmissions  int64                 `json:"total_submissions"`
	CompletionRate    float64               `json:"completion_rate"`
	AverageScore      *float64              `json:"average_score"`
	ActiveEvaluations int64                 `json:"active_evaluations"`
	TotalClassrooms   int64                 `json:"total_classrooms"`
	EvaluationsByType []EvaluationTypeCount `json:"evaluations_by_type"`
	ScoresByType      []EvaluationTypeScore `json:"scores_by_type"`
	ClassroomStats    []ClassroomStat       `json:"classroom_stats"`
}

type RecentSubmission struct {
	ID             uuid.UUID                 `json:"id"`
	SubjectID      uuid.UUID                 `json:"subject_id"`
	SubjectTitle   string                    `json:"subject_title"`
	EvaluationType entity.EvaluationType     `json:"evaluation_type"`
	Student        *commonDto.AccountSummary `json:"student,omitempty"`
	SubmittedAt    time.Time                 `json:"submitted_at"`
	IsCorrected    bool                      `json:"is_corrected"`
}

type ProfessorStats struct {
	TotalSubjects        int64              `json:"total_subjects"`
	TotalStudents        int64              `json:"total_students"`
	SubmissionsToCorrect int64              `json:"submissions_to_correct"`
	RecentSubmissions    []RecentSubmission `json:"recent_submissions"`
}

type StudentStats struct {
	OpenEvaluations int64    `json:"open_evaluations"`
	Submitted       int64    `json:"submitted"`
	Corrected       int64    `json:"corrected"`
	AverageScore    *float64 `json:"average_score"`
}

func ToRecentSubmission(s *entity.Submission) RecentSubmission {
	out := RecentSubmission{
		ID:          s.ID,
		SubjectID:   s.SubjectID,
		SubmittedAt: s.SubmittedAt,
		IsCorrected: s.IsCorrected,
	}
	if s.Subject != nil {
		out.SubjectTitle = s.Subject.Title
		out.EvaluationType = s.Subject.EvaluationType
	}
	if s.Student != nil {
		out.Student = &commonDto.AccountSummary{
			ID:        s.Student.ID.String(),
			FirstName: s.Student.FirstName,
			LastName:  s.Student.LastName,
		}
	}
	return out
}
