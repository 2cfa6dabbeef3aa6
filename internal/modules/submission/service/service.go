package submission

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"anoa.com/campusadmin/internal/modules/evaluation"
	subjectRepo "anoa.com/campusadmin/internal/modules/evaluation/repository"
	storedfile "anoa.com/campusadmin/internal/modules/storedfile/service"
	"anoa.com/campusadmin/internal/modules/submission/dto"
	"anoa.com/campusadmin/internal/modules/submission/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionService interface {
	// Submit runs the deposit saga: store the file, then insert the row and
	// claim the file in one transaction, deleting the file if that fails.
	Submit(ctx context.Context, auth authctx.AuthContext, subjectID uuid.UUID, files []commonDto.UploadedFile) (*dto.SubmissionResponse, error)
	MySubmissions(ctx context.Context, auth authctx.AuthContext) (*dto.SubmissionListResponse, error)
	StartCorrection(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*dto.SubmissionResponse, error)
}

type submissionService struct {
	repo     repository.SubmissionRepository
	subjects subjectRepo.SubjectRepository
	accounts accountRepo.AccountRepository
	files    storedfile.StoredFileService
	queue    CorrectionQueue
	now      func() time.Time
}

// NewSubmissionService enables auto-correction when queue is not nil.
func NewSubmissionService(
	repo repository.SubmissionRepository,
	subjects subjectRepo.SubjectRepository,
	accounts accountRepo.AccountRepository,
	files storedfile.StoredFileService,
	queue CorrectionQueue,
) SubmissionService {
	return &submissionService{
		repo:     repo,
		subjects: subjects,
		accounts: accounts,
		files:    files,
		queue:    queue,
		now:      time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, auth authctx.AuthContext, subjectID uuid.UUID, files []commonDto.UploadedFile) (*dto.SubmissionResponse, error) {
	if !auth.Is(entity.RoleStudent) {
		return nil, apperror.ErrForbidden
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, apperror.FromDB(err, "Sujet introuvable")
	}

	student, err := s.accounts.FindByID(ctx, auth.AccountID)
	if err != nil {
		return nil, apperror.FromDB(err, "Utilisateur introuvable")
	}
	if student.ClassroomID == nil || *student.ClassroomID != subject.ClassroomID {
		return nil, apperror.Forbidden("Ce sujet ne concerne pas votre classe")
	}

	if len(files) != 1 {
		return nil, apperror.Validation("Un seul fichier doit être déposé")
	}
	file := files[0]
	if !subject.DocumentType.Accepts(file.FileName) {
		return nil, apperror.Validation("Format de fichier refusé, extensions acceptées : %s",
			strings.Join(subject.DocumentType.AcceptedExtensions(), ", "))
	}

	now := s.now()
	existing, err := s.repo.FindByStudentAndSubject(ctx, auth.AccountID, subject.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := evaluation.Transition(evaluation.DeriveStatus(subject, existing, nil, now), evaluation.EventSubmit); err != nil {
		return nil, err
	}

	url, err := s.files.Store(ctx, auth.AccountID, "submissions/"+subject.ID.String(), file)
	if err != nil {
		return nil, err
	}

	submission := &entity.Submission{
		FileURL:     url,
		SubmittedAt: now,
		StudentID:   auth.AccountID,
		SubjectID:   subject.ID,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		s.files.Discard(ctx, url)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Vous avez déjà déposé un travail pour ce sujet")
		}
		return nil, err
	}

	if s.queue != nil {
		s.enqueue(ctx, submission, subject)
	}

	submission.Subject = subject
	resp := dto.ToSubmissionResponse(submission, evaluation.DeriveStatus(subject, submission, nil, now))
	return &resp, nil
}

// enqueue hands the submission to the automated corrector. A failed push
// leaves the submission SUBMITTED so a professor can still correct it.
func (s *submissionService) enqueue(ctx context.Context, submission *entity.Submission, subject *entity.Subject) {
	job := CorrectionJob{
		SubmissionID:   submission.ID,
		SubjectID:      subject.ID,
		FileURL:        submission.FileURL,
		EvaluationType: subject.EvaluationType,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Printf("[submission] failed to queue correction for %s: %v", submission.ID, err)
		return
	}
	if err := s.repo.MarkCorrecting(ctx, submission.ID); err != nil {
		log.Printf("[submission] failed to flag %s as correcting: %v", submission.ID, err)
		return
	}
	submission.IsCorrecting = true
}

func (s *submissionService) MySubmissions(ctx context.Context, auth authctx.AuthContext) (*dto.SubmissionListResponse, error) {
	if !auth.Is(entity.RoleStudent) {
		return nil, apperror.ErrForbidden
	}

	submissions, err := s.repo.ListByStudent(ctx, auth.AccountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]dto.SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		sub := &submissions[i]
		status := evaluation.StatusSubmitted
		if sub.Subject != nil {
			status = evaluation.DeriveStatus(sub.Subject, sub, nil, now)
		}
		out = append(out, dto.ToSubmissionResponse(sub, status))
	}
	return &dto.SubmissionListResponse{Submissions: out, Total: len(out)}, nil
}

func (s *submissionService) StartCorrection(ctx context.Context, auth authctx.AuthContext, id uuid.UUID) (*dto.SubmissionResponse, error) {
	if !auth.Is(entity.RoleProfessor) {
		return nil, apperror.ErrForbidden
	}

	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Dépôt introuvable")
	}
	if submission.Subject == nil || submission.Subject.TeacherID != auth.AccountID {
		return nil, apperror.ErrForbidden
	}

	now := s.now()
	next, err := evaluation.Transition(evaluation.DeriveStatus(submission.Subject, submission, nil, now), evaluation.EventBeginCorrection)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkCorrecting(ctx, submission.ID); err != nil {
		return nil, err
	}
	submission.IsCorrecting = true

	resp := dto.ToSubmissionResponse(submission, next)
	return &resp, nil
}
