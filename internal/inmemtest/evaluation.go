package inmemtest

import (
	"context"
	"strings"
	"time"

	"anoa.com/campusadmin/internal/entity"
	correctionRepo "anoa.com/campusadmin/internal/modules/correction/repository"
	evaluationRepo "anoa.com/campusadmin/internal/modules/evaluation/repository"
	submissionRepo "anoa.com/campusadmin/internal/modules/submission/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// claim marks a ledger row as referenced. Caller holds the write lock.
func (db *DB) claim(url string) error {
	f, ok := db.storedFiles[url]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Claimed = true
	return nil
}

func (db *DB) loadSubject(s *entity.Subject) entity.Subject {
	out := *s
	out.Teacher, out.Classroom = nil, nil
	if t, ok := db.accounts[s.TeacherID]; ok {
		teacher := *t
		out.Teacher = &teacher
	}
	if c, ok := db.classrooms[s.ClassroomID]; ok {
		classroom := *c
		classroom.Teacher = nil
		out.Classroom = &classroom
	}
	return out
}

func (db *DB) loadSubmission(sub *entity.Submission) entity.Submission {
	out := *sub
	out.Subject, out.Student, out.Correction = nil, nil, nil
	if s, ok := db.subjects[sub.SubjectID]; ok {
		subject := *s
		subject.Teacher, subject.Classroom = nil, nil
		out.Subject = &subject
	}
	if a, ok := db.accounts[sub.StudentID]; ok {
		student := *a
		out.Student = &student
	}
	if c, ok := db.corrections[sub.ID]; ok {
		correction := *c
		out.Correction = &correction
	}
	return out
}

type subjectRepository struct {
	db *DB
}

func NewSubjectRepository(db *DB) evaluationRepo.SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(ctx context.Context, subject *entity.Subject) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if subject.FileURL != "" {
		if err := r.db.claim(subject.FileURL); err != nil {
			return err
		}
	}
	subject.ID = idOrNew(subject.ID)
	subject.CreatedAt = r.db.Now()
	subject.UpdatedAt = subject.CreatedAt
	stored := *subject
	stored.Teacher, stored.Classroom = nil, nil
	r.db.subjects[subject.ID] = &stored
	return nil
}

func (r *subjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.subjects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.db.loadSubject(s)
	return &out, nil
}

func matchesSubject(s *entity.Subject, f evaluationRepo.SubjectFilter) bool {
	if f.TeacherID != nil && s.TeacherID != *f.TeacherID {
		return false
	}
	if f.ClassroomID != nil && s.ClassroomID != *f.ClassroomID {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.IDs != nil {
		for _, id := range f.IDs {
			if id == s.ID {
				return true
			}
		}
		return false
	}
	return true
}

func (r *subjectRepository) List(ctx context.Context, filter evaluationRepo.SubjectFilter) ([]entity.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []entity.Subject{}
	for _, s := range sortedValues(r.db.subjects, func(a, b *entity.Subject) bool { return a.StartDate.After(b.StartDate) }) {
		if matchesSubject(s, filter) {
			out = append(out, r.db.loadSubject(s))
		}
	}
	return out, nil
}

func (r *subjectRepository) Count(ctx context.Context, filter evaluationRepo.SubjectFilter) (int64, error) {
	subjects, err := r.List(ctx, filter)
	return int64(len(subjects)), err
}

func (r *subjectRepository) Update(ctx context.Context, subject *entity.Subject, newFileURL string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.subjects[subject.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if newFileURL != "" {
		if err := r.db.claim(newFileURL); err != nil {
			return err
		}
	}
	s.Title = subject.Title
	s.Description = subject.Description
	s.FileURL = subject.FileURL
	s.EvaluationType = subject.EvaluationType
	s.DocumentType = subject.DocumentType
	s.StartDate = subject.StartDate
	s.EndDate = subject.EndDate
	s.ClassroomID = subject.ClassroomID
	s.UpdatedAt = r.db.Now()
	return nil
}

func (r *subjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.db.deleteSubject(id)
	return nil
}

func (r *subjectRepository) CountSubmissions(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, sub := range r.db.submissions {
		if sub.SubjectID == subjectID {
			n++
		}
	}
	return n, nil
}

func (r *subjectRepository) FindOpenedUnnotified(ctx context.Context, now time.Time) ([]entity.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []entity.Subject{}
	for _, s := range r.db.subjects {
		if s.OpenNotifiedAt == nil && !s.StartDate.After(now) && !s.EndDate.Before(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *subjectRepository) MarkOpenNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.subjects[id]; ok {
		stamp := at
		s.OpenNotifiedAt = &stamp
	}
	return nil
}

type submissionRepository struct {
	db *DB
}

func NewSubmissionRepository(db *DB) submissionRepo.SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.db.FailSubmissionCreate; err != nil {
		r.db.FailSubmissionCreate = nil
		return err
	}
	for _, existing := range r.db.submissions {
		if existing.StudentID == submission.StudentID && existing.SubjectID == submission.SubjectID {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := r.db.claim(submission.FileURL); err != nil {
		return err
	}

	submission.ID = idOrNew(submission.ID)
	stored := *submission
	stored.Subject, stored.Student, stored.Correction = nil, nil, nil
	r.db.submissions[submission.ID] = &stored
	return nil
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	sub, ok := r.db.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.db.loadSubmission(sub)
	return &out, nil
}

func (r *submissionRepository) FindByStudentAndSubject(ctx context.Context, studentID, subjectID uuid.UUID) (*entity.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, sub := range r.db.submissions {
		if sub.StudentID == studentID && sub.SubjectID == subjectID {
			out := r.db.loadSubmission(sub)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *submissionRepository) list(keep func(*entity.Submission) bool, newestFirst bool) []entity.Submission {
	out := []entity.Submission{}
	sorted := sortedValues(r.db.submissions, func(a, b *entity.Submission) bool {
		if newestFirst {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		return a.SubmittedAt.Before(b.SubmittedAt)
	})
	for _, sub := range sorted {
		if keep(sub) {
			out = append(out, r.db.loadSubmission(sub))
		}
	}
	return out
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]entity.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.list(func(s *entity.Submission) bool { return s.StudentID == studentID }, true), nil
}

func (r *submissionRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]entity.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.list(func(s *entity.Submission) bool { return s.SubjectID == subjectID }, false), nil
}

func (r *submissionRepository) MarkCorrecting(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if sub, ok := r.db.submissions[id]; ok && !sub.IsCorrected {
		sub.IsCorrecting = true
	}
	return nil
}

type correctionRepository struct {
	db *DB
}

func NewCorrectionRepository(db *DB) correctionRepo.CorrectionRepository {
	return &correctionRepository{db: db}
}

func (r *correctionRepository) Record(ctx context.Context, correction *entity.Correction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	sub, ok := r.db.submissions[correction.SubmissionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing, ok := r.db.corrections[sub.ID]; ok {
		correction.ID = existing.ID
	}
	correction.ID = idOrNew(correction.ID)
	stored := *correction
	stored.Submission = nil
	r.db.corrections[sub.ID] = &stored

	sub.IsCorrected = true
	sub.IsCorrecting = false
	return nil
}

func (r *correctionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]entity.Correction, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []entity.Correction{}
	for _, c := range sortedValues(r.db.corrections, func(a, b *entity.Correction) bool { return a.CorrectedAt.After(b.CorrectedAt) }) {
		sub, ok := r.db.submissions[c.SubmissionID]
		if !ok || sub.StudentID != studentID {
			continue
		}
		loaded := r.db.loadSubmission(sub)
		loaded.Correction = nil
		correction := *c
		correction.Submission = &loaded
		out = append(out, correction)
	}
	return out, nil
}
