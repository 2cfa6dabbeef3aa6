package repository

import (
	"context"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestCounters struct {
	Users       int64
	Departments int64
	Total       int64
	Pending     int64
	Approved    int64
	Rejected    int64
}

type MonthlyRow struct {
	Month    time.Time
	Total    int64
	Approved int64
	Rejected int64
}

type SchoolCounters struct {
	Students            int64
	Professors          int64
	Evaluations         int64
	ActiveEvaluations   int64
	Submissions         int64
	ExpectedSubmissions int64
	Classrooms          int64
	AverageScore        *float64
}

type TypeCount struct {
	EvaluationType entity.EvaluationType
	Count          int64
}

type TypeScore struct {
	EvaluationType entity.EvaluationType
	AverageScore   float64
}

type ClassroomRow struct {
	ID                  uuid.UUID
	Name                string
	StudentCount        int64
	EvaluationCount     int64
	SubmissionCount     int64
	ExpectedSubmissions int64
	AverageScore        *float64
}

type ProfessorCounters struct {
	Subjects             int64
	Students             int64
	SubmissionsToCorrect int64
}

type StudentCounters struct {
	OpenEvaluations int64
	Submitted       int64
	Corrected       int64
	AverageScore    *float64
}

// StatsRepository runs the read-only aggregates behind the dashboard.
type StatsRepository interface {
	// RequestCounters scopes users and requests to departmentID when set.
	RequestCounters(ctx context.Context, departmentID *uuid.UUID) (*RequestCounters, error)
	MonthlyRequests(ctx context.Context, departmentID *uuid.UUID, since time.Time) ([]MonthlyRow, error)
	SchoolCounters(ctx context.Context, now time.Time) (*SchoolCounters, error)
	EvaluationsByType(ctx context.Context) ([]TypeCount, error)
	ScoresByType(ctx context.Context) ([]TypeScore, error)
	ClassroomRows(ctx context.Context) ([]ClassroomRow, error)
	ProfessorCounters(ctx context.Context, teacherID uuid.UUID) (*ProfessorCounters, error)
	RecentSubmissions(ctx context.Context, teacherID uuid.UUID, limit int) ([]entity.Submission, error)
	StudentCounters(ctx context.Context, studentID uuid.UUID, classroomID *uuid.UUID, now time.Time) (*StudentCounters, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) RequestCounters(ctx context.Context, departmentID *uuid.UUID) (*RequestCounters, error) {
	var out RequestCounters
	db := r.db.WithContext(ctx)

	users := db.Model(&entity.Account{})
	requests := db.Model(&entity.Request{})
	if departmentID != nil {
		users = users.Where("department_id = ?", *departmentID)
		requests = requests.Where("department_id = ?", *departmentID)
		out.Departments = 1
	} else if err := db.Model(&entity.Department{}).Count(&out.Departments).Error; err != nil {
		return nil, err
	}
	if err := users.Count(&out.Users).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Status entity.RequestStatus
		Count  int64
	}
	err := requests.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out.Total += row.Count
		switch row.Status {
		case entity.RequestPending:
			out.Pending = row.Count
		case entity.RequestApproved:
			out.Approved = row.Count
		case entity.RequestRejected:
			out.Rejected = row.Count
		}
	}
	return &out, nil
}

func (r *statsRepository) MonthlyRequests(ctx context.Context, departmentID *uuid.UUID, since time.Time) ([]MonthlyRow, error) {
	var rows []MonthlyRow
	query := r.db.WithContext(ctx).Model(&entity.Request{}).
		Select(`date_trunc('month', created_at) AS month,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ?) AS approved,
			COUNT(*) FILTER (WHERE status = ?) AS rejected`, entity.RequestApproved, entity.RequestRejected).
		Where("created_at >= ?", since)
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}
	err := query.Group("month").Order("month ASC").Scan(&rows).Error
	return rows, err
}

func (r *statsRepository) SchoolCounters(ctx context.Context, now time.Time) (*SchoolCounters, error) {
	var out SchoolCounters
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts WHERE role = @student) AS students,
			(SELECT COUNT(*) FROM accounts WHERE role = @professor) AS professors,
			(SELECT COUNT(*) FROM subjects) AS evaluations,
			(SELECT COUNT(*) FROM subjects WHERE start_date <= @now AND end_date >= @now) AS active_evaluations,
			(SELECT COUNT(*) FROM submissions) AS submissions,
			(SELECT COUNT(*) FROM subjects s JOIN accounts a ON a.classroom_id = s.classroom_id AND a.role = @student) AS expected_submissions,
			(SELECT COUNT(*) FROM classrooms) AS classrooms,
			(SELECT AVG(score) FROM corrections WHERE score IS NOT NULL) AS average_score`
	err := r.db.WithContext(ctx).Raw(query, map[string]any{
		"student":   entity.RoleStudent,
		"professor": entity.RoleProfessor,
		"now":       now,
	}).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *statsRepository) EvaluationsByType(ctx context.Context) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.db.WithContext(ctx).Model(&entity.Subject{}).
		Select("evaluation_type, COUNT(*) AS count").
		Group("evaluation_type").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *statsRepository) ScoresByType(ctx context.Context) ([]TypeScore, error) {
	var rows []TypeScore
	err := r.db.WithContext(ctx).Model(&entity.Correction{}).
		Select("evaluation_type, AVG(score) AS average_score").
		Where("score IS NOT NULL").
		Group("evaluation_type").
		Scan(&rows).Error
	return rows, err
}

func (r *statsRepository) ClassroomRows(ctx context.Context) ([]ClassroomRow, error) {
	var rows []ClassroomRow
	query := `
		WITH students AS (
			SELECT classroom_id, COUNT(*) AS n FROM accounts
			WHERE role = @student AND classroom_id IS NOT NULL
			GROUP BY classroom_id
		), evaluations AS (
			SELECT classroom_id, COUNT(*) AS n FROM subjects GROUP BY classroom_id
		), deposits AS (
			SELECT s.classroom_id, COUNT(sub.id) AS n, AVG(c.score) AS avg_score
			FROM submissions sub
			JOIN subjects s ON s.id = sub.subject_id
			LEFT JOIN corrections c ON c.submission_id = sub.id
			GROUP BY s.classroom_id
		)
		SELECT cl.id, cl.name,
			COALESCE(st.n, 0) AS student_count,
			COALESCE(ev.n, 0) AS evaluation_count,
			COALESCE(d.n, 0) AS submission_count,
			COALESCE(st.n, 0) * COALESCE(ev.n, 0) AS expected_submissions,
			d.avg_score AS average_score
		FROM classrooms cl
		LEFT JOIN students st ON st.classroom_id = cl.id
		LEFT JOIN evaluations ev ON ev.classroom_id = cl.id
		LEFT JOIN deposits d ON d.classroom_id = cl.id
		ORDER BY cl.name ASC`
	err := r.db.WithContext(ctx).Raw(query, map[string]any{"student": entity.RoleStudent}).Scan(&rows).Error
	return rows, err
}

func (r *statsRepository) ProfessorCounters(ctx context.Context, teacherID uuid.UUID) (*ProfessorCounters, error) {
	var out ProfessorCounters
	query := `
		SELECT
			(SELECT COUNT(*) FROM subjects WHERE teacher_id = @teacher) AS subjects,
			(SELECT COUNT(*) FROM accounts a JOIN classrooms c ON c.id = a.classroom_id
				WHERE c.teacher_id = @teacher AND a.role = @student) AS students,
			(SELECT COUNT(*) FROM submissions sub JOIN subjects s ON s.id = sub.subject_id
				WHERE s.teacher_id = @teacher AND sub.is_corrected = false) AS submissions_to_correct`
	err := r.db.WithContext(ctx).Raw(query, map[string]any{
		"teacher": teacherID,
		"student": entity.RoleStudent,
	}).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *statsRepository) RecentSubmissions(ctx context.Context, teacherID uuid.UUID, limit int) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.WithContext(ctx).
		Joins("JOIN subjects ON subjects.id = submissions.subject_id").
		Where("subjects.teacher_id = ?", teacherID).
		Preload("Student").
		Preload("Subject").
		Order("submissions.submitted_at DESC").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}

func (r *statsRepository) StudentCounters(ctx context.Context, studentID uuid.UUID, classroomID *uuid.UUID, now time.Time) (*StudentCounters, error) {
	var out StudentCounters
	query := `
		SELECT
			(SELECT COUNT(*) FROM subjects s
				WHERE s.classroom_id = @classroom AND s.start_date <= @now AND s.end_date >= @now
				AND NOT EXISTS (SELECT 1 FROM submissions sub WHERE sub.subject_id = s.id AND sub.student_id = @student)
			) AS open_evaluations,
			(SELECT COUNT(*) FROM submissions WHERE student_id = @student) AS submitted,
			(SELECT COUNT(*) FROM submissions WHERE student_id = @student AND is_corrected = true) AS corrected,
			(SELECT AVG(c.score) FROM corrections c JOIN submissions sub ON sub.id = c.submission_id
				WHERE sub.student_id = @student AND c.score IS NOT NULL) AS average_score`
	// A NULL classroom matches no subject.
	err := r.db.WithContext(ctx).Raw(query, map[string]any{
		"student":   studentID,
		"classroom": classroomID,
		"now":       now,
	}).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
