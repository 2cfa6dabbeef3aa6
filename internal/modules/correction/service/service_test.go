package correction

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	"anoa.com/campusadmin/internal/modules/correction/dto"
	"anoa.com/campusadmin/internal/modules/evaluation"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db         *inmemtest.DB
	svc        *correctionService
	prof       authctx.AuthContext
	student    authctx.AuthContext
	submission *entity.Submission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemtest.NewDB()
	db.Now = func() time.Time { return now }
	accounts := inmemtest.NewAccountRepository(db)

	prof := &entity.Account{FirstName: "P", LastName: "N", Email: "prof@campus.test", PasswordHash: "x", Role: entity.RoleProfessor}
	require.NoError(t, accounts.Create(ctx, prof))
	student := &entity.Account{FirstName: "E", LastName: "N", Email: "etu@campus.test", PasswordHash: "x", Role: entity.RoleStudent}
	require.NoError(t, accounts.Create(ctx, student))

	classroom := &entity.Classroom{Name: "L3", TeacherID: &prof.ID}
	require.NoError(t, inmemtest.NewClassroomRepository(db).Create(ctx, classroom))

	subject := &entity.Subject{
		Title:          "Pointeurs",
		EvaluationType: entity.EvaluationCLanguage,
		DocumentType:   entity.DocumentPDF,
		StartDate:      now.Add(-2 * time.Hour),
		EndDate:        now.Add(-time.Hour),
		TeacherID:      prof.ID,
		ClassroomID:    classroom.ID,
	}
	require.NoError(t, inmemtest.NewSubjectRepository(db).Create(ctx, subject))

	url := "https://files.test/submissions/copie.pdf"
	require.NoError(t, inmemtest.NewStoredFileRepository(db).Create(ctx, &entity.StoredFile{URL: url, OwnerID: student.ID}))
	submission := &entity.Submission{FileURL: url, SubmittedAt: now.Add(-90 * time.Minute), StudentID: student.ID, SubjectID: subject.ID}
	require.NoError(t, inmemtest.NewSubmissionRepository(db).Create(ctx, submission))

	svc := NewCorrectionService(
		inmemtest.NewCorrectionRepository(db),
		inmemtest.NewSubmissionRepository(db),
		notifService.NewNotificationService(inmemtest.NewNotificationRepository(db), nil),
	).(*correctionService)
	svc.now = func() time.Time { return now }

	return &fixture{
		db:         db,
		svc:        svc,
		prof:       authctx.AuthContext{AccountID: prof.ID, Role: entity.RoleProfessor},
		student:    authctx.AuthContext{AccountID: student.ID, Role: entity.RoleStudent},
		submission: submission,
	}
}

func score(v float64) *float64 { return &v }

func TestScoreBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, bad := range []*float64{nil, score(-0.5), score(20.01)} {
		_, err := f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{Score: bad})
		assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))
	}

	for _, ok := range []float64{0, 20} {
		res, err := f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{Score: score(ok)})
		require.NoError(t, err)
		assert.Equal(t, ok, *res.Score)
	}
}

func TestNotesAreSanitizedAndBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{
		Score: score(14),
		Notes: "<b>Bien</b><script>steal()</script>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bien", res.Notes)
	assert.Equal(t, entity.EvaluationCLanguage, res.EvaluationType)

	plain := "C'est bien, mais l'index manque & 2 < 3"
	res, err = f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{
		Score: score(15),
		Notes: plain,
	})
	require.NoError(t, err)
	assert.Equal(t, plain, res.Notes)

	results, err := f.svc.StudentResults(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, results.Results, 1)
	assert.Equal(t, plain, results.Results[0].Notes)

	_, err = f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{
		Score: score(14),
		Notes: strings.Repeat("é", MaxNotesRune+1),
	})
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))
}

func TestOnlySubjectOwnerCorrects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleProfessor}
	_, err := f.svc.RecordCorrection(ctx, other, f.submission.ID, dto.CorrectionRequest{Score: score(10)})
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))

	_, err = f.svc.RecordCorrection(ctx, f.student, f.submission.ID, dto.CorrectionRequest{Score: score(20)})
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))

	_, err = f.svc.RecordCorrection(ctx, f.prof, uuid.New(), dto.CorrectionRequest{Score: score(10)})
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestRecordMarksCorrectedAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{Score: score(12.5)})
	require.NoError(t, err)

	sub, err := inmemtest.NewSubmissionRepository(f.db).FindByID(ctx, f.submission.ID)
	require.NoError(t, err)
	assert.True(t, sub.IsCorrected)
	assert.False(t, sub.IsCorrecting)
	assert.Equal(t, evaluation.StatusCorrected, evaluation.DeriveStatus(sub.Subject, sub, nil, now))

	notes := f.db.Notifications(f.student.AccountID)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationCorrectionRecorded, notes[0].Type)
	assert.Contains(t, notes[0].Message, "12.5/20")

	// A second recording updates the same correction.
	first, err := f.svc.StudentResults(ctx, f.student)
	require.NoError(t, err)
	_, err = f.svc.RecordCorrection(ctx, f.prof, f.submission.ID, dto.CorrectionRequest{Score: score(16)})
	require.NoError(t, err)

	results, err := f.svc.StudentResults(ctx, f.student)
	require.NoError(t, err)
	require.Equal(t, 1, results.Total)
	assert.Equal(t, 16.0, *results.Results[0].Score)
	assert.Equal(t, "Pointeurs", results.Results[0].SubjectTitle)
	assert.Equal(t, "Langage C", results.Results[0].EvaluationLabel)
	assert.Equal(t, first.Results[0].SubmissionID, results.Results[0].SubmissionID)
}

func TestRecordAutomatedSkipsOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.RecordAutomated(ctx, f.submission.ID, dto.CorrectionRequest{Score: score(18), Notes: "Auto"})
	require.NoError(t, err)
	assert.Equal(t, 18.0, *res.Score)

	_, err = f.svc.RecordAutomated(ctx, f.submission.ID, dto.CorrectionRequest{Score: score(21)})
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))
}

func TestStudentResultsRequiresStudent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StudentResults(context.Background(), f.prof)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "12.5", formatScore(12.5))
	assert.Equal(t, "20", formatScore(20))
	assert.Equal(t, "0", formatScore(0))
	assert.Equal(t, "13.25", formatScore(13.25))
}
