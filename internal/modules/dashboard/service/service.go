package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"anoa.com/campusadmin/internal/modules/dashboard/dto"
	"anoa.com/campusadmin/internal/modules/dashboard/repository"
	departmentRepo "anoa.com/campusadmin/internal/modules/department/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	recentSubmissionsLimit = 6
	monthsShown            = 12
)

var monthNames = [...]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Août", "Sep", "Oct", "Nov", "Déc"}

type DashboardService interface {
	// Stats returns the payload matching the caller's role: *dto.RequestStats,
	// *dto.SchoolStats, *dto.ProfessorStats or *dto.StudentStats.
	Stats(ctx context.Context, auth authctx.AuthContext) (any, error)
}

type dashboardService struct {
	repo        repository.StatsRepository
	accounts    accountRepo.AccountRepository
	departments departmentRepo.DepartmentRepository
	cache       Cache
	ttl         time.Duration
	now         func() time.Time
}

// NewDashboardService computes every call directly when cache is nil.
func NewDashboardService(
	repo repository.StatsRepository,
	accounts accountRepo.AccountRepository,
	departments departmentRepo.DepartmentRepository,
	cache Cache,
	ttl time.Duration,
) DashboardService {
	return &dashboardService{
		repo:        repo,
		accounts:    accounts,
		departments: departments,
		cache:       cache,
		ttl:         ttl,
		now:         time.Now,
	}
}

func cacheKey(role entity.Role, tenant string) string {
	return fmt.Sprintf("dashboard:stats:%s:%s", role, tenant)
}

func cached[T any](ctx context.Context, s *dashboardService, key string, compute func() (*T, error)) (*T, error) {
	if s.cache != nil {
		var hit T
		found, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			log.Printf("[dashboard] cache read %s: %v", key, err)
		} else if found {
			return &hit, nil
		}
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
			log.Printf("[dashboard] cache write %s: %v", key, err)
		}
	}
	return value, nil
}

func (s *dashboardService) Stats(ctx context.Context, auth authctx.AuthContext) (any, error) {
	switch auth.Role {
	case entity.RoleSuperAdmin:
		return cached(ctx, s, cacheKey(auth.Role, "all"), func() (*dto.RequestStats, error) {
			return s.requestStats(ctx, nil)
		})

	case entity.RoleDepartmentAdmin, entity.RoleStaff:
		departmentID, err := s.callerDepartment(ctx, auth)
		if err != nil {
			return nil, err
		}
		if departmentID == nil {
			return &dto.RequestStats{MonthlyRequests: []dto.MonthlyRequests{}}, nil
		}
		return cached(ctx, s, cacheKey(auth.Role, departmentID.String()), func() (*dto.RequestStats, error) {
			return s.requestStats(ctx, departmentID)
		})

	case entity.RoleAdmin:
		return cached(ctx, s, cacheKey(auth.Role, "all"), func() (*dto.SchoolStats, error) {
			return s.schoolStats(ctx)
		})

	case entity.RoleProfessor:
		return cached(ctx, s, cacheKey(auth.Role, auth.AccountID.String()), func() (*dto.ProfessorStats, error) {
			return s.professorStats(ctx, auth.AccountID)
		})

	case entity.RoleStudent:
		return cached(ctx, s, cacheKey(auth.Role, auth.AccountID.String()), func() (*dto.StudentStats, error) {
			return s.studentStats(ctx, auth.AccountID)
		})
	}
	return nil, apperror.ErrForbidden
}

func (s *dashboardService) callerDepartment(ctx context.Context, auth authctx.AuthContext) (*uuid.UUID, error) {
	if auth.Role == entity.RoleDepartmentAdmin {
		department, err := s.departments.FindByManager(ctx, auth.AccountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		id := department.ID
		return &id, nil
	}

	account, err := s.accounts.FindByID(ctx, auth.AccountID)
	if err != nil {
		return nil, apperror.FromDB(err, "Utilisateur introuvable")
	}
	return account.DepartmentID, nil
}

func (s *dashboardService) requestStats(ctx context.Context, departmentID *uuid.UUID) (*dto.RequestStats, error) {
	counters, err := s.repo.RequestCounters(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsShown - 1), 0)
	rows, err := s.repo.MonthlyRequests(ctx, departmentID, since)
	if err != nil {
		return nil, err
	}

	monthly := make([]dto.MonthlyRequests, 0, len(rows))
	for _, row := range rows {
		monthly = append(monthly, dto.MonthlyRequests{
			Month:    MonthLabel(row.Month),
			Total:    row.Total,
			Approved: row.Approved,
			Rejected: row.Rejected,
		})
	}

	return &dto.RequestStats{
		TotalUsers:       counters.Users,
		TotalDepartments: counters.Departments,
		TotalRequests:    counters.Total,
		PendingRequests:  counters.Pending,
		ApprovedRequests: counters.Approved,
		RejectedRequests: counters.Rejected,
		MonthlyRequests:  monthly,
	}, nil
}

func (s *dashboardService) schoolStats(ctx context.Context) (*dto.SchoolStats, error) {
	counters, err := s.repo.SchoolCounters(ctx, s.now())
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.EvaluationsByType(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := s.repo.ScoresByType(ctx)
	if err != nil {
		return nil, err
	}
	classrooms, err := s.repo.ClassroomRows(ctx)
	if err != nil {
		return nil, err
	}

	out := &dto.SchoolStats{
		TotalStudents:     counters.Students,
		TotalProfessors:   counters.Professors,
		TotalEvaluations:  counters.Evaluations,
		TotalSubmissions:  counters.Submissions,
		CompletionRate:    CompletionRate(counters.Submissions, counters.ExpectedSubmissions),
		AverageScore:      roundScore(counters.AverageScore),
		ActiveEvaluations: counters.ActiveEvaluations,
		TotalClassrooms:   counters.Classrooms,
		EvaluationsByType: make([]dto.EvaluationTypeCount, 0, len(byType)),
		ScoresByType:      make([]dto.EvaluationTypeScore, 0, len(scores)),
		ClassroomStats:    make([]dto.ClassroomStat, 0, len(classrooms)),
	}
	for _, row := range byType {
		out.EvaluationsByType = append(out.EvaluationsByType, dto.EvaluationTypeCount{
			Type:  row.EvaluationType,
			Label: row.EvaluationType.Label(),
			Count: row.Count,
		})
	}
	for _, row := range scores {
		avg := row.AverageScore
		out.ScoresByType = append(out.ScoresByType, dto.EvaluationTypeScore{
			Type:         row.EvaluationType,
			Label:        row.EvaluationType.Label(),
			AverageScore: *roundScore(&avg),
		})
	}
	for _, row := range classrooms {
		out.ClassroomStats = append(out.ClassroomStats, dto.ClassroomStat{
			ID:              row.ID,
			Name:            row.Name,
			StudentCount:    row.StudentCount,
			EvaluationCount: row.EvaluationCount,
			CompletionRate:  CompletionRate(row.SubmissionCount, row.ExpectedSubmissions),
			AverageScore:    roundScore(row.AverageScore),
		})
	}
	return out, nil
}

func (s *dashboardService) professorStats(ctx context.Context, teacherID uuid.UUID) (*dto.ProfessorStats, error) {
	counters, err := s.repo.ProfessorCounters(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentSubmissions(ctx, teacherID, recentSubmissionsLimit)
	if err != nil {
		return nil, err
	}

	out := &dto.ProfessorStats{
		TotalSubjects:        counters.Subjects,
		TotalStudents:        counters.Students,
		SubmissionsToCorrect: counters.SubmissionsToCorrect,
		RecentSubmissions:    make([]dto.RecentSubmission, 0, len(recent)),
	}
	for i := range recent {
		out.RecentSubmissions = append(out.RecentSubmissions, dto.ToRecentSubmission(&recent[i]))
	}
	return out, nil
}

func (s *dashboardService) studentStats(ctx context.Context, studentID uuid.UUID) (*dto.StudentStats, error) {
	// The classroom may have changed since the token was issued.
	account, err := s.accounts.FindByID(ctx, studentID)
	if err != nil {
		return nil, apperror.FromDB(err, "Utilisateur introuvable")
	}
	counters, err := s.repo.StudentCounters(ctx, studentID, account.ClassroomID, s.now())
	if err != nil {
		return nil, err
	}
	return &dto.StudentStats{
		OpenEvaluations: counters.OpenEvaluations,
		Submitted:       counters.Submitted,
		Corrected:       counters.Corrected,
		AverageScore:    roundScore(counters.AverageScore),
	}, nil
}

// MonthLabel formats t as "Fév 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

// CompletionRate is a percentage with one decimal, capped at 100.
func CompletionRate(done, expected int64) float64 {
	if expected <= 0 {
		return 0
	}
	rate := math.Round(float64(done)/float64(expected)*1000) / 10
	return math.Min(rate, 100)
}

func roundScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	rounded := math.Round(*score*100) / 100
	return &rounded
}
