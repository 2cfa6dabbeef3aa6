package correction

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/modules/correction/dto"
	"anoa.com/campusadmin/internal/modules/correction/repository"
	"anoa.com/campusadmin/internal/modules/evaluation"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"
	submissionRepo "anoa.com/campusadmin/internal/modules/submission/repository"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	MinScore     = 0.0
	MaxScore     = 20.0
	MaxNotesRune = 2000
)

type CorrectionService interface {
	RecordCorrection(ctx context.Context, auth authctx.AuthContext, submissionID uuid.UUID, req dto.CorrectionRequest) (*dto.CorrectionResponse, error)
	// RecordAutomated is RecordCorrection for the automated corrector, which
	// is authenticated by token rather than by account.
	RecordAutomated(ctx context.Context, submissionID uuid.UUID, req dto.CorrectionRequest) (*dto.CorrectionResponse, error)
	StudentResults(ctx context.Context, auth authctx.AuthContext) (*dto.ResultListResponse, error)
}

type correctionService struct {
	repo          repository.CorrectionRepository
	submissions   submissionRepo.SubmissionRepository
	notifications notifService.NotificationService
	sanitizer     *bluemonday.Policy
	now           func() time.Time
}

func NewCorrectionService(
	repo repository.CorrectionRepository,
	submissions submissionRepo.SubmissionRepository,
	notifications notifService.NotificationService,
) CorrectionService {
	return &correctionService{
		repo:          repo,
		submissions:   submissions,
		notifications: notifications,
		sanitizer:     bluemonday.StrictPolicy(),
		now:           time.Now,
	}
}

func (s *correctionService) RecordCorrection(ctx context.Context, auth authctx.AuthContext, submissionID uuid.UUID, req dto.CorrectionRequest) (*dto.CorrectionResponse, error) {
	if !auth.Is(entity.RoleProfessor) {
		return nil, apperror.ErrForbidden
	}
	return s.record(ctx, &auth.AccountID, submissionID, req)
}

func (s *correctionService) RecordAutomated(ctx context.Context, submissionID uuid.UUID, req dto.CorrectionRequest) (*dto.CorrectionResponse, error) {
	return s.record(ctx, nil, submissionID, req)
}

// record checks ownership only when teacherID is set.
func (s *correctionService) record(ctx context.Context, teacherID *uuid.UUID, submissionID uuid.UUID, req dto.CorrectionRequest) (*dto.CorrectionResponse, error) {
	if req.Score == nil || *req.Score < MinScore || *req.Score > MaxScore {
		return nil, apperror.Validation("La note doit être comprise entre 0 et 20")
	}
	notes := s.plainText(req.Notes)
	if utf8.RuneCountInString(notes) > MaxNotesRune {
		return nil, apperror.Validation("Les remarques ne doivent pas dépasser %d caractères", MaxNotesRune)
	}

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, apperror.FromDB(err, "Dépôt introuvable")
	}
	subject := submission.Subject
	if subject == nil {
		return nil, apperror.NotFound("Sujet introuvable")
	}
	if teacherID != nil && subject.TeacherID != *teacherID {
		return nil, apperror.ErrForbidden
	}

	now := s.now()
	if _, err := evaluation.Transition(evaluation.DeriveStatus(subject, submission, nil, now), evaluation.EventRecordCorrection); err != nil {
		return nil, err
	}

	score := *req.Score
	correction := &entity.Correction{
		Score:          &score,
		Notes:          notes,
		CorrectedAt:    now,
		EvaluationType: subject.EvaluationType,
		SubmissionID:   submission.ID,
	}
	if submission.Correction != nil {
		correction.ID = submission.Correction.ID
	}
	if err := s.repo.Record(ctx, correction); err != nil {
		return nil, apperror.FromDB(err, "Dépôt introuvable")
	}

	s.notifyStudent(ctx, submission, subject, score)

	resp := dto.ToCorrectionResponse(correction)
	return &resp, nil
}

// plainText strips markup but keeps the characters the professor typed;
// the strict policy escapes ' & < which would otherwise be stored as entities.
func (s *correctionService) plainText(notes string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(notes)))
}

func (s *correctionService) notifyStudent(ctx context.Context, submission *entity.Submission, subject *entity.Subject, score float64) {
	subjectID := subject.ID
	err := s.notifications.CreateNotification(ctx, &entity.Notification{
		UserID:      submission.StudentID,
		Type:        entity.NotificationCorrectionRecorded,
		Title:       "Correction disponible",
		Message:     fmt.Sprintf("Votre copie « %s » a été corrigée : %s/20", subject.Title, formatScore(score)),
		ReferenceID: &subjectID,
	})
	if err != nil {
		log.Printf("[correction] failed to notify student %s: %v", submission.StudentID, err)
	}
}

func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
}

func (s *correctionService) StudentResults(ctx context.Context, auth authctx.AuthContext) (*dto.ResultListResponse, error) {
	if !auth.Is(entity.RoleStudent) {
		return nil, apperror.ErrForbidden
	}

	corrections, err := s.repo.ListByStudent(ctx, auth.AccountID)
	if err != nil {
		return nil, err
	}

	results := make([]dto.ResultResponse, 0, len(corrections))
	for i := range corrections {
		results = append(results, dto.ToResultResponse(&corrections[i]))
	}
	return &dto.ResultListResponse{Results: results, Total: len(results)}, nil
}
