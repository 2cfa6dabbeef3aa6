package subject

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	correctionDto "anoa.com/campusadmin/internal/modules/correction/dto"
	correction "anoa.com/campusadmin/internal/modules/correction/service"
	"anoa.com/campusadmin/internal/modules/evaluation"
	"anoa.com/campusadmin/internal/modules/evaluation/dto"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"
	storedfile "anoa.com/campusadmin/internal/modules/storedfile/service"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db        *inmemtest.DB
	storage   *inmemtest.FileStorage
	files     storedfile.StoredFileService
	svc       *subjectService
	prof      authctx.AuthContext
	student   authctx.AuthContext
	outsider  authctx.AuthContext
	classroom *entity.Classroom
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemtest.NewDB()
	db.Now = func() time.Time { return now }
	accounts := inmemtest.NewAccountRepository(db)

	mk := func(email string, role entity.Role) *entity.Account {
		a := &entity.Account{FirstName: email, LastName: "N", Email: email, PasswordHash: "x", Role: role}
		require.NoError(t, accounts.Create(ctx, a))
		return a
	}
	prof := mk("prof@campus.test", entity.RoleProfessor)
	student := mk("etu@campus.test", entity.RoleStudent)
	outsider := mk("autre@campus.test", entity.RoleStudent)

	classroom := &entity.Classroom{Name: "L3 Info", TeacherID: &prof.ID}
	require.NoError(t, inmemtest.NewClassroomRepository(db).Create(ctx, classroom))
	require.NoError(t, accounts.AssignClassroom(ctx, classroom.ID, []uuid.UUID{student.ID}))

	storage := inmemtest.NewFileStorage()
	files := storedfile.NewStoredFileService(inmemtest.NewStoredFileRepository(db), storage)
	svc := NewSubjectService(
		inmemtest.NewSubjectRepository(db),
		inmemtest.NewClassroomRepository(db),
		accounts,
		inmemtest.NewSubmissionRepository(db),
		files,
		nil,
		notifService.NewNotificationService(inmemtest.NewNotificationRepository(db), nil),
	).(*subjectService)
	svc.now = func() time.Time { return now }

	return &fixture{
		db:        db,
		storage:   storage,
		files:     files,
		svc:       svc,
		prof:      authctx.AuthContext{AccountID: prof.ID, Role: entity.RoleProfessor},
		student:   authctx.AuthContext{AccountID: student.ID, Role: entity.RoleStudent},
		outsider:  authctx.AuthContext{AccountID: outsider.ID, Role: entity.RoleStudent},
		classroom: classroom,
	}
}

func (f *fixture) input(title string, start, end time.Time) dto.SubjectInput {
	return dto.SubjectInput{
		Title:          title,
		Description:    "<p>Arbres</p><script>alert(1)</script>",
		EvaluationType: entity.EvaluationDataStructures,
		DocumentType:   entity.DocumentPDF,
		StartDate:      start,
		EndDate:        end,
		ClassroomID:    f.classroom.ID.String(),
	}
}

func (f *fixture) submit(t *testing.T, subjectID uuid.UUID, student authctx.AuthContext) *entity.Submission {
	t.Helper()
	ctx := context.Background()
	url, err := f.files.Store(ctx, student.AccountID, "submissions/"+subjectID.String(), commonDto.UploadedFile{
		Reader: strings.NewReader("%PDF"), FileName: "copie.pdf",
	})
	require.NoError(t, err)
	sub := &entity.Submission{FileURL: url, SubmittedAt: now, StudentID: student.AccountID, SubjectID: subjectID}
	require.NoError(t, inmemtest.NewSubmissionRepository(f.db).Create(ctx, sub))
	return sub
}

func TestCreateSubjectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input("TP arbres", now.Add(time.Hour), now)
	_, err := f.svc.CreateSubject(ctx, f.prof, in, nil)
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))

	in = f.input("TP arbres", now, now.Add(time.Hour))
	in.EvaluationType = "COBOL"
	_, err = f.svc.CreateSubject(ctx, f.prof, in, nil)
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))

	in = f.input("TP arbres", now, now.Add(time.Hour))
	in.ClassroomID = uuid.NewString()
	_, err = f.svc.CreateSubject(ctx, f.prof, in, nil)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))

	_, err = f.svc.CreateSubject(ctx, f.student, f.input("TP", now, now.Add(time.Hour)), nil)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
}

func TestCreateSubjectRequiresTaughtClassroom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &entity.Account{FirstName: "O", LastName: "P", Email: "o@campus.test", PasswordHash: "x", Role: entity.RoleProfessor}
	require.NoError(t, inmemtest.NewAccountRepository(f.db).Create(ctx, other))

	caller := authctx.AuthContext{AccountID: other.ID, Role: entity.RoleProfessor}
	_, err := f.svc.CreateSubject(ctx, caller, f.input("TP", now, now.Add(time.Hour)), nil)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
}

func TestCreateSubjectStoresAndClaimsFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := &commonDto.UploadedFile{Reader: strings.NewReader("%PDF"), FileName: "enonce.pdf"}
	res, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP arbres", now, now.Add(time.Hour)), file)
	require.NoError(t, err)

	assert.Contains(t, res.FileURL, "/subjects/")
	assert.Equal(t, "<p>Arbres</p>", res.Description)
	assert.Equal(t, evaluation.StatusOpen, res.Status)
	assert.Equal(t, "Structures de données", res.EvaluationLabel)

	row, ok := f.db.StoredFile(res.FileURL)
	require.True(t, ok)
	assert.True(t, row.Claimed)
	assert.True(t, f.storage.Exists(res.FileURL))
}

func TestStudentSeesOwnClassroomSubjectsWithStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open, err := f.svc.CreateSubject(ctx, f.prof, f.input("Ouvert", now.Add(-time.Hour), now.Add(time.Hour)), nil)
	require.NoError(t, err)
	_, err = f.svc.CreateSubject(ctx, f.prof, f.input("Bientôt", now.Add(time.Hour), now.Add(2*time.Hour)), nil)
	require.NoError(t, err)
	closed, err := f.svc.CreateSubject(ctx, f.prof, f.input("Fini", now.Add(-2*time.Hour), now.Add(-time.Hour)), nil)
	require.NoError(t, err)
	f.submit(t, closed.ID, f.student)

	res, err := f.svc.ListSubjects(ctx, f.student)
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)

	statuses := map[string]evaluation.Status{}
	for _, s := range res.Subjects {
		statuses[s.Title] = s.Status
	}
	assert.Equal(t, evaluation.StatusOpen, statuses["Ouvert"])
	assert.Equal(t, evaluation.StatusUpcoming, statuses["Bientôt"])
	assert.Equal(t, evaluation.StatusSubmitted, statuses["Fini"])

	got, err := f.svc.GetSubject(ctx, f.student, closed.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Submission)

	_, err = f.svc.GetSubject(ctx, f.outsider, open.ID)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))

	empty, err := f.svc.ListSubjects(ctx, f.outsider)
	require.NoError(t, err)
	assert.Empty(t, empty.Subjects)
}

func TestUpdateLocksDocumentTypeAfterSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP", now.Add(-time.Hour), now.Add(time.Hour)), nil)
	require.NoError(t, err)
	f.submit(t, created.ID, f.student)

	in := f.input("TP", now.Add(-time.Hour), now.Add(time.Hour))
	in.DocumentType = entity.DocumentMarkdown
	_, err = f.svc.UpdateSubject(ctx, f.prof, created.ID, in, nil)
	assert.Equal(t, http.StatusConflict, apperror.MapErrorToStatus(err))

	in = f.input("TP renommé", now.Add(-time.Hour), now.Add(3*time.Hour))
	updated, err := f.svc.UpdateSubject(ctx, f.prof, created.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, "TP renommé", updated.Title)
	assert.Equal(t, now.Add(3*time.Hour), updated.EndDate)
}

func TestUpdateReplacesReferenceFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := &commonDto.UploadedFile{Reader: strings.NewReader("v1"), FileName: "v1.pdf"}
	created, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP", now, now.Add(time.Hour)), first)
	require.NoError(t, err)

	second := &commonDto.UploadedFile{Reader: strings.NewReader("v2"), FileName: "v2.pdf"}
	updated, err := f.svc.UpdateSubject(ctx, f.prof, created.ID, f.input("TP", now, now.Add(time.Hour)), second)
	require.NoError(t, err)

	assert.NotEqual(t, created.FileURL, updated.FileURL)
	assert.False(t, f.storage.Exists(created.FileURL))
	assert.True(t, f.storage.Exists(updated.FileURL))
}

func TestOnlyOwnerManagesSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &entity.Account{FirstName: "O", LastName: "P", Email: "o@campus.test", PasswordHash: "x", Role: entity.RoleProfessor}
	require.NoError(t, inmemtest.NewAccountRepository(f.db).Create(ctx, other))
	intruder := authctx.AuthContext{AccountID: other.ID, Role: entity.RoleProfessor}

	created, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP", now, now.Add(time.Hour)), nil)
	require.NoError(t, err)

	_, err = f.svc.GetSubject(ctx, intruder, created.ID)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
	_, err = f.svc.Grades(ctx, intruder, created.ID)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(f.svc.DeleteSubject(ctx, intruder, created.ID)))
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(f.svc.DeleteSubject(ctx, f.prof, uuid.New())))
}

func TestDeleteSubjectRemovesSubmissionFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP", now.Add(-time.Hour), now.Add(time.Hour)), nil)
	require.NoError(t, err)
	sub := f.submit(t, created.ID, f.student)
	require.True(t, f.storage.Exists(sub.FileURL))

	require.NoError(t, f.svc.DeleteSubject(ctx, f.prof, created.ID))
	assert.False(t, f.storage.Exists(sub.FileURL))
	_, ok := f.db.StoredFile(sub.FileURL)
	assert.False(t, ok)

	_, err = f.svc.GetSubject(ctx, f.prof, created.ID)
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))
}

func TestGradesListsEveryStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := &entity.Account{FirstName: "B", LastName: "N", Email: "b@campus.test", PasswordHash: "x", Role: entity.RoleStudent}
	require.NoError(t, inmemtest.NewAccountRepository(f.db).Create(ctx, second))
	require.NoError(t, inmemtest.NewAccountRepository(f.db).AssignClassroom(ctx, f.classroom.ID, []uuid.UUID{second.ID}))

	created, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP", now.Add(-2*time.Hour), now.Add(-time.Hour)), nil)
	require.NoError(t, err)
	f.submit(t, created.ID, f.student)

	res, err := f.svc.Grades(ctx, f.prof, created.ID)
	require.NoError(t, err)
	require.Len(t, res.Grades, 2)

	byStudent := map[string]dto.GradeRow{}
	for _, row := range res.Grades {
		byStudent[row.Student.ID] = row
	}
	assert.Equal(t, evaluation.StatusSubmitted, byStudent[f.student.AccountID.String()].Status)
	assert.NotNil(t, byStudent[f.student.AccountID.String()].Submission)
	assert.Equal(t, evaluation.StatusClosed, byStudent[second.ID.String()].Status)
	assert.Nil(t, byStudent[second.ID.String()].Submission)
}

func TestGradesShowRecordedCorrection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSubject(ctx, f.prof, f.input("TP", now.Add(-2*time.Hour), now.Add(-time.Hour)), nil)
	require.NoError(t, err)
	sub := f.submit(t, created.ID, f.student)

	corrections := correction.NewCorrectionService(
		inmemtest.NewCorrectionRepository(f.db),
		inmemtest.NewSubmissionRepository(f.db),
		notifService.NewNotificationService(inmemtest.NewNotificationRepository(f.db), nil),
	)
	score := 14.0
	_, err = corrections.RecordCorrection(ctx, f.prof, sub.ID, correctionDto.CorrectionRequest{Score: &score, Notes: "bien"})
	require.NoError(t, err)

	res, err := f.svc.Grades(ctx, f.prof, created.ID)
	require.NoError(t, err)
	require.Len(t, res.Grades, 1)

	row := res.Grades[0]
	assert.Equal(t, evaluation.StatusCorrected, row.Status)
	require.NotNil(t, row.Submission)
	assert.True(t, row.Submission.IsCorrected)
	assert.False(t, row.Submission.IsCorrecting)
	require.NotNil(t, row.Submission.Correction)
	require.NotNil(t, row.Submission.Correction.Score)
	assert.Equal(t, 14.0, *row.Submission.Correction.Score)
	assert.Equal(t, "bien", row.Submission.Correction.Notes)
}

func TestSearchFallsBackToTitleQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubject(ctx, f.prof, f.input("Arbres AVL", now, now.Add(time.Hour)), nil)
	require.NoError(t, err)
	_, err = f.svc.CreateSubject(ctx, f.prof, f.input("Tris", now, now.Add(time.Hour)), nil)
	require.NoError(t, err)

	res, err := f.svc.SearchSubjects(ctx, f.student, "arbres")
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "Arbres AVL", res.Subjects[0].Title)

	res, err = f.svc.SearchSubjects(ctx, f.outsider, "arbres")
	require.NoError(t, err)
	assert.Empty(t, res.Subjects)
}

func TestNotifyOpenedSubjectsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubject(ctx, f.prof, f.input("Ouvert", now.Add(-time.Minute), now.Add(time.Hour)), nil)
	require.NoError(t, err)
	_, err = f.svc.CreateSubject(ctx, f.prof, f.input("Bientôt", now.Add(time.Hour), now.Add(2*time.Hour)), nil)
	require.NoError(t, err)

	n, err := f.svc.NotifyOpenedSubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := f.db.Notifications(f.student.AccountID)
	require.Len(t, got, 1)
	assert.Equal(t, entity.NotificationSubjectOpened, got[0].Type)
	assert.Empty(t, f.db.Notifications(f.outsider.AccountID))

	n, err = f.svc.NotifyOpenedSubjects(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.db.Notifications(f.student.AccountID), 1)
}

func TestOrderByIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	subjects := []dto.SubjectResponse{{ID: a}, {ID: b}, {ID: c}}
	orderByIDs(subjects, []uuid.UUID{c, a, b})
	assert.Equal(t, []uuid.UUID{c, a, b}, []uuid.UUID{subjects[0].ID, subjects[1].ID, subjects[2].ID})
}
