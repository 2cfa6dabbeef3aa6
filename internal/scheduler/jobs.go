package scheduler

import (
	"context"
	"log"

	subject "anoa.com/campusadmin/internal/modules/evaluation/service"
	storedfile "anoa.com/campusadmin/internal/modules/storedfile/service"
)

const (
	OrphanFileCleanup   = "orphan-file-cleanup"
	SubjectOpenNotifier = "subject-open-notifier"
)

type orphanFileCleanup struct {
	files storedfile.StoredFileService
}

func NewOrphanFileCleanup(files storedfile.StoredFileService) Job {
	return &orphanFileCleanup{files: files}
}

func (j *orphanFileCleanup) Name() string     { return OrphanFileCleanup }
func (j *orphanFileCleanup) Schedule() string { return "@every 12h" }

func (j *orphanFileCleanup) Run(ctx context.Context) error {
	removed, err := j.files.CleanupOrphans(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Printf("[scheduler] removed %d orphan files", removed)
	}
	return nil
}

type subjectOpenNotifier struct {
	subjects subject.SubjectService
}

func NewSubjectOpenNotifier(subjects subject.SubjectService) Job {
	return &subjectOpenNotifier{subjects: subjects}
}

func (j *subjectOpenNotifier) Name() string     { return SubjectOpenNotifier }
func (j *subjectOpenNotifier) Schedule() string { return "@every 5m" }

func (j *subjectOpenNotifier) Run(ctx context.Context) error {
	notified, err := j.subjects.NotifyOpenedSubjects(ctx)
	if err != nil {
		return err
	}
	if notified > 0 {
		log.Printf("[scheduler] announced %d opened subjects", notified)
	}
	return nil
}
