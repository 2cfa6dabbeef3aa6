// Package inmemtest is a map-backed implementation of the repository interfaces
// and of storage.FileStorage. It mirrors the constraints the Postgres schema
// enforces (unique keys, cascades) closely enough for service tests. Only
// _test.go files import it.
package inmemtest

import (
	"sort"
	"sync"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
)

type DB struct {
	mu sync.RWMutex

	accounts      map[uuid.UUID]*entity.Account
	departments   map[uuid.UUID]*entity.Department
	classrooms    map[uuid.UUID]*entity.Classroom
	subjects      map[uuid.UUID]*entity.Subject
	submissions   map[uuid.UUID]*entity.Submission
	corrections   map[uuid.UUID]*entity.Correction // keyed by submission id
	requests      map[uuid.UUID]*entity.Request
	notifications []*entity.Notification
	storedFiles   map[string]*entity.StoredFile
	fileSeq       uint

	// Now stamps created rows.
	Now func() time.Time
	// FailSubmissionCreate, when set, is returned by the next submission
	// insert.
	FailSubmissionCreate error
}

func NewDB() *DB {
	return &DB{
		accounts:    make(map[uuid.UUID]*entity.Account),
		departments: make(map[uuid.UUID]*entity.Department),
		classrooms:  make(map[uuid.UUID]*entity.Classroom),
		subjects:    make(map[uuid.UUID]*entity.Subject),
		submissions: make(map[uuid.UUID]*entity.Submission),
		corrections: make(map[uuid.UUID]*entity.Correction),
		requests:    make(map[uuid.UUID]*entity.Request),
		storedFiles: make(map[string]*entity.StoredFile),
		Now:         time.Now,
	}
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func idOrNew(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return newID()
	}
	return id
}

func sameID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

func sortedValues[T any](m map[uuid.UUID]*T, less func(a, b *T) bool) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// deleteSubject removes a subject with its submissions and corrections.
// Caller holds the write lock.
func (db *DB) deleteSubject(id uuid.UUID) {
	for subID, sub := range db.submissions {
		if sub.SubjectID == id {
			db.deleteSubmission(subID)
		}
	}
	delete(db.subjects, id)
}

func (db *DB) deleteSubmission(id uuid.UUID) {
	delete(db.corrections, id)
	delete(db.submissions, id)
}
