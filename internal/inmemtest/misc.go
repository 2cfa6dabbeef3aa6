package inmemtest

import (
	"context"
	"strings"
	"time"

	"anoa.com/campusadmin/internal/entity"
	notifRepo "anoa.com/campusadmin/internal/modules/notification/repository"
	requestRepo "anoa.com/campusadmin/internal/modules/request/repository"
	storedFileRepo "anoa.com/campusadmin/internal/modules/storedfile/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type requestRepository struct {
	db *DB
}

func NewRequestRepository(db *DB) requestRepo.RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) load(req *entity.Request) entity.Request {
	out := *req
	out.User, out.Department = nil, nil
	if a, ok := r.db.accounts[req.UserID]; ok {
		user := *a
		out.User = &user
	}
	if req.DepartmentID != nil {
		if d, ok := r.db.departments[*req.DepartmentID]; ok {
			department := *d
			department.Manager = nil
			out.Department = &department
		}
	}
	return out
}

func (r *requestRepository) Create(ctx context.Context, request *entity.Request) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	request.ID = idOrNew(request.ID)
	request.CreatedAt = r.db.Now()
	request.UpdatedAt = request.CreatedAt
	stored := *request
	stored.User, stored.Department = nil, nil
	r.db.requests[request.ID] = &stored
	return nil
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Request, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	req, ok := r.db.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.load(req)
	return &out, nil
}

func (r *requestRepository) List(ctx context.Context, filter requestRepo.RequestFilter) ([]entity.Request, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	out := []entity.Request{}
	for _, req := range sortedValues(r.db.requests, func(a, b *entity.Request) bool { return a.CreatedAt.After(b.CreatedAt) }) {
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(req.Name), search) && !strings.Contains(strings.ToLower(req.Category), search) {
			continue
		}
		out = append(out, r.load(req))
	}
	return out, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.RequestStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, ok := r.db.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = r.db.Now()
	return true, nil
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.requests[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.requests, id)
	return nil
}

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) notifRepo.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) insert(n *entity.Notification) {
	n.ID = idOrNew(n.ID)
	n.CreatedAt = r.db.Now()
	stored := *n
	r.db.notifications = append(r.db.notifications, &stored)
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.insert(notification)
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []entity.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range notifications {
		r.insert(&notifications[i])
	}
	return nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var mine []entity.Notification
	for i := len(r.db.notifications) - 1; i >= 0; i-- {
		if n := r.db.notifications[i]; n.UserID == userID {
			mine = append(mine, *n)
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []entity.Notification{}, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, n := range r.db.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, n := range r.db.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var count int64
	for _, n := range r.db.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// Notifications returns every stored notification of userID, oldest first.
func (db *DB) Notifications(userID uuid.UUID) []entity.Notification {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []entity.Notification
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

type storedFileRepository struct {
	db *DB
}

func NewStoredFileRepository(db *DB) storedFileRepo.StoredFileRepository {
	return &storedFileRepository{db: db}
}

func (r *storedFileRepository) Create(ctx context.Context, file *entity.StoredFile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.storedFiles[file.URL]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.db.fileSeq++
	file.ID = r.db.fileSeq
	if file.CreatedAt.IsZero() {
		file.CreatedAt = r.db.Now()
	}
	stored := *file
	r.db.storedFiles[file.URL] = &stored
	return nil
}

func (r *storedFileRepository) referenced(url string) bool {
	for _, s := range r.db.subjects {
		if s.FileURL == url {
			return true
		}
	}
	for _, sub := range r.db.submissions {
		if sub.FileURL == url {
			return true
		}
	}
	return false
}

func (r *storedFileRepository) FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.StoredFile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []entity.StoredFile{}
	for _, f := range r.db.storedFiles {
		if !f.CreatedAt.Before(cutoffTime) {
			continue
		}
		if !f.Claimed || !r.referenced(f.URL) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *storedFileRepository) DeleteByURL(ctx context.Context, url string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.storedFiles, url)
	return nil
}

// StoredFile returns the ledger row of url.
func (db *DB) StoredFile(url string) (entity.StoredFile, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	f, ok := db.storedFiles[url]
	if !ok {
		return entity.StoredFile{}, false
	}
	return *f, true
}

// Backdate moves the creation time of a ledger row.
func (db *DB) Backdate(url string, at time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if f, ok := db.storedFiles[url]; ok {
		f.CreatedAt = at
	}
}
