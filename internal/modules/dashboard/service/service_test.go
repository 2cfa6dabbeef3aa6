package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	"anoa.com/campusadmin/internal/modules/dashboard/dto"
	"anoa.com/campusadmin/internal/modules/dashboard/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	calls          int
	requestScope   []*uuid.UUID
	monthlySince   time.Time
	studentRoom    *uuid.UUID
	recentTeacher  uuid.UUID
	failCounters   bool
	school         repository.SchoolCounters
	classroomRows  []repository.ClassroomRow
	recent         []entity.Submission
	studentAverage *float64
}

func (f *fakeStats) RequestCounters(_ context.Context, departmentID *uuid.UUID) (*repository.RequestCounters, error) {
	f.calls++
	f.requestScope = append(f.requestScope, departmentID)
	if f.failCounters {
		return nil, errors.New("connection refused")
	}
	return &repository.RequestCounters{Users: 4, Departments: 2, Total: 6, Pending: 1, Approved: 3, Rejected: 2}, nil
}

func (f *fakeStats) MonthlyRequests(_ context.Context, _ *uuid.UUID, since time.Time) ([]repository.MonthlyRow, error) {
	f.monthlySince = since
	return []repository.MonthlyRow{
		{Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Total: 2, Approved: 1},
		{Month: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Total: 4, Approved: 2, Rejected: 2},
	}, nil
}

func (f *fakeStats) SchoolCounters(context.Context, time.Time) (*repository.SchoolCounters, error) {
	f.calls++
	out := f.school
	return &out, nil
}

func (f *fakeStats) EvaluationsByType(context.Context) ([]repository.TypeCount, error) {
	return []repository.TypeCount{{EvaluationType: entity.EvaluationSQL, Count: 3}}, nil
}

func (f *fakeStats) ScoresByType(context.Context) ([]repository.TypeScore, error) {
	return []repository.TypeScore{{EvaluationType: entity.EvaluationCLanguage, AverageScore: 12.3456}}, nil
}

func (f *fakeStats) ClassroomRows(context.Context) ([]repository.ClassroomRow, error) {
	return f.classroomRows, nil
}

func (f *fakeStats) ProfessorCounters(context.Context, uuid.UUID) (*repository.ProfessorCounters, error) {
	f.calls++
	return &repository.ProfessorCounters{Subjects: 2, Students: 25, SubmissionsToCorrect: 7}, nil
}

func (f *fakeStats) RecentSubmissions(_ context.Context, teacherID uuid.UUID, _ int) ([]entity.Submission, error) {
	f.recentTeacher = teacherID
	return f.recent, nil
}

func (f *fakeStats) StudentCounters(_ context.Context, _ uuid.UUID, classroomID *uuid.UUID, _ time.Time) (*repository.StudentCounters, error) {
	f.calls++
	f.studentRoom = classroomID
	return &repository.StudentCounters{OpenEvaluations: 1, Submitted: 3, Corrected: 2, AverageScore: f.studentAverage}, nil
}

// mapCache mimics the JSON round trip of the Redis cache.
type mapCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	if c.failGet {
		return false, errors.New("redis down")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.ttls[key] = ttl
	return nil
}

type fixture struct {
	repo       *fakeStats
	cache      *mapCache
	svc        *dashboardService
	manager    *entity.Account
	staff      *entity.Account
	student    *entity.Account
	department *entity.Department
	classroom  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemtest.NewDB()
	accounts := inmemtest.NewAccountRepository(db)
	departments := inmemtest.NewDepartmentRepository(db)

	mk := func(email string, role entity.Role) *entity.Account {
		a := &entity.Account{FirstName: email, LastName: "N", Email: email, PasswordHash: "x", Role: role}
		require.NoError(t, accounts.Create(ctx, a))
		return a
	}
	manager := mk("dpt@campus.test", entity.RoleDepartmentAdmin)
	department := &entity.Department{Name: "Gestion", ManagerID: &manager.ID}
	require.NoError(t, departments.Create(ctx, department))

	staff := mk("staff@campus.test", entity.RoleStaff)
	staff.DepartmentID = &department.ID
	require.NoError(t, accounts.Update(ctx, staff))

	classroom := uuid.New()
	student := mk("eleve@campus.test", entity.RoleStudent)
	student.ClassroomID = &classroom
	require.NoError(t, accounts.Update(ctx, student))

	repo := &fakeStats{}
	cache := newMapCache()
	svc := NewDashboardService(repo, accounts, departments, cache, time.Minute).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }

	return &fixture{
		repo: repo, cache: cache, svc: svc,
		manager: manager, staff: staff, student: student,
		department: department, classroom: classroom,
	}
}

func TestSuperAdminGetsGlobalRequestStats(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Stats(context.Background(), authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleSuperAdmin})
	require.NoError(t, err)
	stats, ok := out.(*dto.RequestStats)
	require.True(t, ok)

	assert.Equal(t, int64(6), stats.TotalRequests)
	assert.Equal(t, int64(3), stats.ApprovedRequests)
	assert.Equal(t, int64(2), stats.TotalDepartments)
	require.Len(t, stats.MonthlyRequests, 2)
	assert.Equal(t, "Fév 2026", stats.MonthlyRequests[0].Month)
	assert.Equal(t, "Août 2026", stats.MonthlyRequests[1].Month)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), f.repo.monthlySince)
	require.Len(t, f.repo.requestScope, 1)
	assert.Nil(t, f.repo.requestScope[0])
}

func TestDepartmentScopedStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Stats(ctx, authctx.AuthContext{AccountID: f.manager.ID, Role: entity.RoleDepartmentAdmin})
	require.NoError(t, err)
	_, err = f.svc.Stats(ctx, authctx.AuthContext{AccountID: f.staff.ID, Role: entity.RoleStaff})
	require.NoError(t, err)

	require.Len(t, f.repo.requestScope, 2)
	for _, scope := range f.repo.requestScope {
		require.NotNil(t, scope)
		assert.Equal(t, f.department.ID, *scope)
	}

	// A manager heading no department sees empty counters.
	orphan := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleDepartmentAdmin}
	out, err := f.svc.Stats(ctx, orphan)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.(*dto.RequestStats).TotalRequests)
	assert.Len(t, f.repo.requestScope, 2)
}

func TestStatsAreCachedPerRoleAndTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prof := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleProfessor}

	first, err := f.svc.Stats(ctx, prof)
	require.NoError(t, err)
	second, err := f.svc.Stats(ctx, prof)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, f.cache.ttls[cacheKey(entity.RoleProfessor, prof.AccountID.String())])

	other := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleProfessor}
	_, err = f.svc.Stats(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.calls)
}

func TestCacheFailureComputesDirectly(t *testing.T) {
	f := newFixture(t)
	f.cache.failGet = true
	ctx := context.Background()
	admin := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleAdmin}

	_, err := f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	_, err = f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.calls)

	f.svc.cache = nil
	_, err = f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, f.repo.calls)
}

func TestRepositoryErrorIsNotCached(t *testing.T) {
	f := newFixture(t)
	f.repo.failCounters = true
	super := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleSuperAdmin}

	_, err := f.svc.Stats(context.Background(), super)
	require.Error(t, err)
	assert.Empty(t, f.cache.entries)
}

func TestSchoolStats(t *testing.T) {
	f := newFixture(t)
	avg := 13.456
	roomAvg := 9.999
	f.repo.school = repository.SchoolCounters{
		Students: 30, Professors: 4, Evaluations: 5, ActiveEvaluations: 2,
		Submissions: 50, ExpectedSubmissions: 150, Classrooms: 2, AverageScore: &avg,
	}
	roomID := uuid.New()
	f.repo.classroomRows = []repository.ClassroomRow{
		{ID: roomID, Name: "L1", StudentCount: 10, EvaluationCount: 2, SubmissionCount: 20, ExpectedSubmissions: 20, AverageScore: &roomAvg},
		{ID: uuid.New(), Name: "L2", StudentCount: 0},
	}

	out, err := f.svc.Stats(context.Background(), authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleAdmin})
	require.NoError(t, err)
	stats := out.(*dto.SchoolStats)

	assert.Equal(t, 33.3, stats.CompletionRate)
	require.NotNil(t, stats.AverageScore)
	assert.Equal(t, 13.46, *stats.AverageScore)
	assert.Equal(t, "SQL", stats.EvaluationsByType[0].Label)
	assert.Equal(t, "Langage C", stats.ScoresByType[0].Label)
	assert.Equal(t, 12.35, stats.ScoresByType[0].AverageScore)

	require.Len(t, stats.ClassroomStats, 2)
	assert.Equal(t, roomID, stats.ClassroomStats[0].ID)
	assert.Equal(t, 100.0, stats.ClassroomStats[0].CompletionRate)
	assert.Equal(t, 10.0, *stats.ClassroomStats[0].AverageScore)
	assert.Equal(t, 0.0, stats.ClassroomStats[1].CompletionRate)
	assert.Nil(t, stats.ClassroomStats[1].AverageScore)
}

func TestProfessorStats(t *testing.T) {
	f := newFixture(t)
	prof := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleProfessor}
	f.repo.recent = []entity.Submission{{
		ID:        uuid.New(),
		SubjectID: uuid.New(),
		Subject:   &entity.Subject{Title: "Jointures", EvaluationType: entity.EvaluationSQL},
		Student:   &entity.Account{ID: f.student.ID, FirstName: "Awa", LastName: "Diop"},
	}}

	out, err := f.svc.Stats(context.Background(), prof)
	require.NoError(t, err)
	stats := out.(*dto.ProfessorStats)

	assert.Equal(t, prof.AccountID, f.repo.recentTeacher)
	assert.Equal(t, int64(7), stats.SubmissionsToCorrect)
	require.Len(t, stats.RecentSubmissions, 1)
	assert.Equal(t, "Jointures", stats.RecentSubmissions[0].SubjectTitle)
	assert.Equal(t, "Awa", stats.RecentSubmissions[0].Student.FirstName)
}

func TestStudentStatsUseStoredClassroom(t *testing.T) {
	f := newFixture(t)
	f.svc.cache = nil

	// The token claims no classroom; storage knows better.
	out, err := f.svc.Stats(context.Background(), authctx.AuthContext{AccountID: f.student.ID, Role: entity.RoleStudent})
	require.NoError(t, err)
	stats := out.(*dto.StudentStats)

	require.NotNil(t, f.repo.studentRoom)
	assert.Equal(t, f.classroom, *f.repo.studentRoom)
	assert.Equal(t, int64(3), stats.Submitted)
	assert.Nil(t, stats.AverageScore)

	_, err = f.svc.Stats(context.Background(), authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleStudent})
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestUnknownRoleIsForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Stats(context.Background(), authctx.AuthContext{AccountID: uuid.New(), Role: entity.Role("GUEST")})
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRate(3, 0))
	assert.Equal(t, 66.7, CompletionRate(2, 3))
	assert.Equal(t, 100.0, CompletionRate(5, 4))
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Déc 2025", MonthLabel(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Jan 2026", MonthLabel(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
