package subject

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	classroomRepo "anoa.com/campusadmin/internal/modules/classroom/repository"
	"anoa.com/campusadmin/internal/modules/evaluation"
	"anoa.com/campusadmin/internal/modules/evaluation/dto"
	"anoa.com/campusadmin/internal/modules/evaluation/repository"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"
	search "anoa.com/campusadmin/internal/modules/search/service"
	storedfile "anoa.com/campusadmin/internal/modules/storedfile/service"
	submissionRepo "anoa.com/campusadmin/internal/modules/submission/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const (
	msgNotFound          = "Sujet introuvable"
	msgClassroomNotFound = "Classe introuvable"
)

type SubjectService interface {
	CreateSubject(ctx context.Context, auth authctx.AuthContext, input dto.SubjectInput, file *commonDto.UploadedFile) (*dto.SubjectResponse, error)
	ListSubjects(ctx context.Context, auth authctx.AuthContext) (*dto.SubjectListResponse, error)
	GetSubject(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*dto.SubjectResponse, error)
	UpdateSubject(ctx context.Context, auth authctx.AuthContext, id uuid.UUID, input dto.SubjectInput, file *commonDto.UploadedFile) (*dto.SubjectResponse, error)
	DeleteSubject(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error
	Grades(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*dto.GradesResponse, error)
	SearchSubjects(ctx context.Context, auth authctx.AuthContext, query string) (*dto.SubjectListResponse, error)
	// NotifyOpenedSubjects tells the students of every newly opened subject,
	// once per subject.
	NotifyOpenedSubjects(ctx context.Context) (int, error)
}

type subjectService struct {
	repo          repository.SubjectRepository
	classrooms    classroomRepo.ClassroomRepository
	accounts      accountRepo.AccountRepository
	submissions   submissionRepo.SubmissionRepository
	files         storedfile.StoredFileService
	search        search.MeiliSearchService
	notifications notifService.NotificationService
	sanitizer     *bluemonday.Policy
	now           func() time.Time
}

// NewSubjectService accepts a nil search service; searches then fall back
// to a title query.
func NewSubjectService(
	repo repository.SubjectRepository,
	classrooms classroomRepo.ClassroomRepository,
	accounts accountRepo.AccountRepository,
	submissions submissionRepo.SubmissionRepository,
	files storedfile.StoredFileService,
	searchSvc search.MeiliSearchService,
	notifications notifService.NotificationService,
) SubjectService {
	return &subjectService{
		repo:          repo,
		classrooms:    classrooms,
		accounts:      accounts,
		submissions:   submissions,
		files:         files,
		search:        searchSvc,
		notifications: notifications,
		sanitizer:     bluemonday.UGCPolicy(),
		now:           time.Now,
	}
}

type validInput struct {
	title          string
	description    string
	evaluationType entity.EvaluationType
	documentType   entity.DocumentType
	start, end     time.Time
	classroomID    uuid.UUID
}

func (s *subjectService) validate(input dto.SubjectInput) (validInput, error) {
	v := validInput{
		title:          strings.TrimSpace(input.Title),
		description:    strings.TrimSpace(s.sanitizer.Sanitize(input.Description)),
		evaluationType: entity.EvaluationType(strings.ToUpper(string(input.EvaluationType))),
		documentType:   entity.DocumentType(strings.ToUpper(string(input.DocumentType))),
		start:          input.StartDate,
		end:            input.EndDate,
	}
	if v.title == "" {
		return v, apperror.Validation("Le titre est requis")
	}
	if !v.evaluationType.Valid() {
		return v, apperror.Validation("Type d'évaluation invalide")
	}
	if !v.documentType.Valid() {
		return v, apperror.Validation("Type de document invalide")
	}
	if v.start.IsZero() || v.end.IsZero() {
		return v, apperror.Validation("Les dates de début et de fin sont requises")
	}
	if v.end.Before(v.start) {
		return v, apperror.Validation("La date de début doit précéder la date de fin")
	}
	id, err := uuid.Parse(strings.TrimSpace(input.ClassroomID))
	if err != nil {
		return v, apperror.Validation("Classe invalide")
	}
	v.classroomID = id
	return v, nil
}

// taughtClassroom checks that the caller teaches the classroom.
func (s *subjectService) taughtClassroom(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error {
	classroom, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		return apperror.FromDB(err, msgClassroomNotFound)
	}
	if classroom.TeacherID == nil || *classroom.TeacherID != auth.AccountID {
		return apperror.Forbidden("Vous n'enseignez pas dans cette classe")
	}
	return nil
}

// owned loads a subject the caller owns.
func (s *subjectService) owned(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*entity.Subject, error) {
	if !auth.Is(entity.RoleProfessor) {
		return nil, apperror.ErrForbidden
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, msgNotFound)
	}
	if subject.TeacherID != auth.AccountID {
		return nil, apperror.ErrForbidden
	}
	return subject, nil
}

// studentClassroom reads the classroom from storage so an enrolment change
// applies without a new session.
func (s *subjectService) studentClassroom(ctx context.Context, auth authctx.AuthContext) (*uuid.UUID, error) {
	account, err := s.accounts.FindByID(ctx, auth.AccountID)
	if err != nil {
		return nil, apperror.FromDB(err, "Utilisateur introuvable")
	}
	return account.ClassroomID, nil
}

func (s *subjectService) index(subject *entity.Subject) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexSubject(subject); err != nil {
		log.Printf("[subject] failed to index %s: %v", subject.ID, err)
	}
}

func (s *subjectService) CreateSubject(ctx context.Context, auth authctx.AuthContext, input dto.SubjectInput, file *commonDto.UploadedFile) (*dto.SubjectResponse, error) {
	if !auth.Is(entity.RoleProfessor) {
		return nil, apperror.ErrForbidden
	}
	v, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	if err := s.taughtClassroom(ctx, auth, v.classroomID); err != nil {
		return nil, err
	}

	subject := &entity.Subject{
		Title:          v.title,
		Description:    v.description,
		EvaluationType: v.evaluationType,
		DocumentType:   v.documentType,
		StartDate:      v.start,
		EndDate:        v.end,
		TeacherID:      auth.AccountID,
		ClassroomID:    v.classroomID,
	}

	if file != nil {
		url, err := s.files.Store(ctx, auth.AccountID, "subjects", *file)
		if err != nil {
			return nil, err
		}
		subject.FileURL = url
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		s.files.Discard(ctx, subject.FileURL)
		return nil, err
	}

	s.index(subject)
	return s.GetSubject(ctx, auth, subject.ID)
}

func (s *subjectService) ListSubjects(ctx context.Context, auth authctx.AuthContext) (*dto.SubjectListResponse, error) {
	return s.list(ctx, auth, repository.SubjectFilter{})
}

// list scopes filter to the caller's tenant and annotates each subject with
// its status.
func (s *subjectService) list(ctx context.Context, auth authctx.AuthContext, filter repository.SubjectFilter) (*dto.SubjectListResponse, error) {
	now := s.now()

	switch auth.Role {
	case entity.RoleProfessor:
		teacherID := auth.AccountID
		filter.TeacherID = &teacherID
		subjects, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]dto.SubjectResponse, 0, len(subjects))
		for i := range subjects {
			out = append(out, dto.ToSubjectResponse(&subjects[i], evaluation.DeriveStatus(&subjects[i], nil, nil, now)))
		}
		return &dto.SubjectListResponse{Subjects: out, Total: len(out)}, nil

	case entity.RoleStudent:
		classroomID, err := s.studentClassroom(ctx, auth)
		if err != nil {
			return nil, err
		}
		if classroomID == nil {
			return &dto.SubjectListResponse{Subjects: []dto.SubjectResponse{}}, nil
		}
		filter.ClassroomID = classroomID
		subjects, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}

		mine, err := s.submissions.ListByStudent(ctx, auth.AccountID)
		if err != nil {
			return nil, err
		}
		bySubject := make(map[uuid.UUID]*entity.Submission, len(mine))
		for i := range mine {
			bySubject[mine[i].SubjectID] = &mine[i]
		}

		out := make([]dto.SubjectResponse, 0, len(subjects))
		for i := range subjects {
			sub := bySubject[subjects[i].ID]
			resp := dto.ToSubjectResponse(&subjects[i], evaluation.DeriveStatus(&subjects[i], sub, nil, now))
			resp.Submission = dto.ToSubmissionSummary(sub)
			out = append(out, resp)
		}
		return &dto.SubjectListResponse{Subjects: out, Total: len(out)}, nil
	}

	return nil, apperror.ErrForbidden
}

func (s *subjectService) GetSubject(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*dto.SubjectResponse, error) {
	now := s.now()

	switch auth.Role {
	case entity.RoleProfessor:
		subject, err := s.owned(ctx, auth, id)
		if err != nil {
			return nil, err
		}
		resp := dto.ToSubjectResponse(subject, evaluation.DeriveStatus(subject, nil, nil, now))
		return &resp, nil

	case entity.RoleStudent:
		subject, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, apperror.FromDB(err, msgNotFound)
		}
		classroomID, err := s.studentClassroom(ctx, auth)
		if err != nil {
			return nil, err
		}
		if classroomID == nil || *classroomID != subject.ClassroomID {
			return nil, apperror.ErrForbidden
		}

		sub, err := s.submissions.FindByStudentAndSubject(ctx, auth.AccountID, subject.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		resp := dto.ToSubjectResponse(subject, evaluation.DeriveStatus(subject, sub, nil, now))
		resp.Submission = dto.ToSubmissionSummary(sub)
		return &resp, nil
	}

	return nil, apperror.ErrForbidden
}

func (s *subjectService) UpdateSubject(ctx context.Context, auth authctx.AuthContext, id uuid.UUID, input dto.SubjectInput, file *commonDto.UploadedFile) (*dto.SubjectResponse, error) {
	subject, err := s.owned(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	v, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	if v.documentType != subject.DocumentType || v.classroomID != subject.ClassroomID {
		count, err := s.repo.CountSubmissions(ctx, subject.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperror.Conflict("Le type de document et la classe ne peuvent plus être modifiés après un dépôt")
		}
	}
	if v.classroomID != subject.ClassroomID {
		if err := s.taughtClassroom(ctx, auth, v.classroomID); err != nil {
			return nil, err
		}
	}

	oldFileURL := subject.FileURL
	newFileURL := ""
	if file != nil {
		newFileURL, err = s.files.Store(ctx, auth.AccountID, "subjects", *file)
		if err != nil {
			return nil, err
		}
		subject.FileURL = newFileURL
	}

	subject.Title = v.title
	subject.Description = v.description
	subject.EvaluationType = v.evaluationType
	subject.DocumentType = v.documentType
	subject.StartDate = v.start
	subject.EndDate = v.end
	subject.ClassroomID = v.classroomID

	if err := s.repo.Update(ctx, subject, newFileURL); err != nil {
		s.files.Discard(ctx, newFileURL)
		return nil, apperror.FromDB(err, msgNotFound)
	}
	if newFileURL != "" && oldFileURL != "" {
		s.files.Discard(ctx, oldFileURL)
	}

	s.index(subject)
	return s.GetSubject(ctx, auth, subject.ID)
}

func (s *subjectService) DeleteSubject(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) error {
	subject, err := s.owned(ctx, auth, id)
	if err != nil {
		return err
	}

	submissions, err := s.submissions.ListBySubject(ctx, subject.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, subject.ID); err != nil {
		return apperror.FromDB(err, msgNotFound)
	}

	// Rows are gone; the files are removed best-effort and whatever fails
	// here is swept later as unreferenced.
	s.files.Discard(ctx, subject.FileURL)
	for _, sub := range submissions {
		s.files.Discard(ctx, sub.FileURL)
	}
	if s.search != nil {
		if err := s.search.DeleteSubject(subject.ID); err != nil {
			log.Printf("[subject] failed to drop %s from index: %v", subject.ID, err)
		}
	}
	return nil
}

func (s *subjectService) Grades(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*dto.GradesResponse, error) {
	subject, err := s.owned(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	classroomID := subject.ClassroomID
	students, err := s.accounts.List(ctx, accountRepo.AccountFilter{
		Roles:       []entity.Role{entity.RoleStudent},
		ClassroomID: &classroomID,
	})
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissions.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[uuid.UUID]*entity.Submission, len(submissions))
	for i := range submissions {
		byStudent[submissions[i].StudentID] = &submissions[i]
	}

	rows := make([]dto.GradeRow, 0, len(students))
	for i := range students {
		sub := byStudent[students[i].ID]
		rows = append(rows, dto.GradeRow{
			Student: commonDto.AccountSummary{
				ID:        students[i].ID.String(),
				FirstName: students[i].FirstName,
				LastName:  students[i].LastName,
				Email:     students[i].Email,
			},
			Submission: dto.ToSubmissionSummary(sub),
			Status:     evaluation.DeriveStatus(subject, sub, nil, now),
		})
	}

	return &dto.GradesResponse{
		Subject: dto.ToSubjectResponse(subject, evaluation.DeriveStatus(subject, nil, nil, now)),
		Grades:  rows,
	}, nil
}

func (s *subjectService) SearchSubjects(ctx context.Context, auth authctx.AuthContext, query string) (*dto.SubjectListResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListSubjects(ctx, auth)
	}

	if s.search != nil {
		scope := search.SubjectScope{}
		switch auth.Role {
		case entity.RoleProfessor:
			teacherID := auth.AccountID
			scope.TeacherID = &teacherID
		case entity.RoleStudent:
			classroomID, err := s.studentClassroom(ctx, auth)
			if err != nil {
				return nil, err
			}
			if classroomID == nil {
				return &dto.SubjectListResponse{Subjects: []dto.SubjectResponse{}}, nil
			}
			scope.ClassroomID = classroomID
		default:
			return nil, apperror.ErrForbidden
		}

		ids, err := s.search.SearchSubjects(ctx, query, scope)
		if err == nil {
			res, err := s.list(ctx, auth, repository.SubjectFilter{IDs: ids})
			if err != nil {
				return nil, err
			}
			orderByIDs(res.Subjects, ids)
			return res, nil
		}
		log.Printf("[subject] search unavailable, falling back to title query: %v", err)
	}

	return s.list(ctx, auth, repository.SubjectFilter{Search: query})
}

// orderByIDs restores the relevance order of the search engine.
func orderByIDs(subjects []dto.SubjectResponse, ids []uuid.UUID) {
	rank := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	sorted := make([]dto.SubjectResponse, len(subjects))
	copy(sorted, subjects)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && rank[sorted[j].ID] < rank[sorted[j-1].ID]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	copy(subjects, sorted)
}

func (s *subjectService) NotifyOpenedSubjects(ctx context.Context) (int, error) {
	now := s.now()
	subjects, err := s.repo.FindOpenedUnnotified(ctx, now)
	if err != nil {
		return 0, err
	}

	notified := 0
	for i := range subjects {
		subject := &subjects[i]
		classroomID := subject.ClassroomID
		students, err := s.accounts.List(ctx, accountRepo.AccountFilter{
			Roles:       []entity.Role{entity.RoleStudent},
			ClassroomID: &classroomID,
		})
		if err != nil {
			return notified, err
		}

		batch := make([]entity.Notification, 0, len(students))
		for _, st := range students {
			subjectID := subject.ID
			batch = append(batch, entity.Notification{
				UserID:      st.ID,
				Type:        entity.NotificationSubjectOpened,
				Title:       "Nouvelle évaluation ouverte",
				Message:     fmt.Sprintf("Le sujet « %s » est ouvert jusqu'au %s", subject.Title, subject.EndDate.Format("02/01/2006 15:04")),
				ReferenceID: &subjectID,
			})
		}
		if len(batch) > 0 {
			if err := s.notifications.CreateNotifications(ctx, batch); err != nil {
				return notified, err
			}
		}
		if err := s.repo.MarkOpenNotified(ctx, subject.ID, now); err != nil {
			return notified, err
		}
		notified++
	}
	return notified, nil
}
