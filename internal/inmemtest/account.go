package inmemtest

import (
	"context"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) accountRepo.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) emailTaken(email string, self uuid.UUID) bool {
	for _, a := range r.db.accounts {
		if a.Email == email && a.ID != self {
			return true
		}
	}
	return false
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.emailTaken(account.Email, uuid.Nil) {
		return gorm.ErrDuplicatedKey
	}
	account.ID = idOrNew(account.ID)
	account.CreatedAt = r.db.Now()
	account.UpdatedAt = account.CreatedAt
	stored := *account
	r.db.accounts[account.ID] = &stored
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if a, ok := r.db.accounts[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, a := range r.db.accounts {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *accountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []entity.Account{}
	for _, id := range ids {
		if a, ok := r.db.accounts[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func matchesAccount(a *entity.Account, f accountRepo.AccountFilter) bool {
	if len(f.Roles) > 0 {
		found := false
		for _, role := range f.Roles {
			if a.Role == role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.DepartmentID != nil && !sameID(a.DepartmentID, f.DepartmentID) {
		return false
	}
	if f.ClassroomID != nil && !sameID(a.ClassroomID, f.ClassroomID) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		return strings.Contains(strings.ToLower(a.FirstName), search) ||
			strings.Contains(strings.ToLower(a.LastName), search) ||
			strings.Contains(strings.ToLower(a.Email), search)
	}
	return true
}

func (r *accountRepository) List(ctx context.Context, filter accountRepo.AccountFilter) ([]entity.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	sorted := sortedValues(r.db.accounts, func(a, b *entity.Account) bool {
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.LastName < b.LastName
	})
	out := []entity.Account{}
	for _, a := range sorted {
		if matchesAccount(a, filter) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *accountRepository) Count(ctx context.Context, filter accountRepo.AccountFilter) (int64, error) {
	accounts, err := r.List(ctx, filter)
	return int64(len(accounts)), err
}

func (r *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.accounts[account.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if r.emailTaken(account.Email, account.ID) {
		return gorm.ErrDuplicatedKey
	}
	account.UpdatedAt = r.db.Now()
	stored := *account
	r.db.accounts[account.ID] = &stored
	return nil
}

// Delete applies the foreign key actions of the schema: departments and
// classrooms lose the link, owned rows are cascaded.
func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.accounts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, d := range r.db.departments {
		if d.ManagerID != nil && *d.ManagerID == id {
			d.ManagerID = nil
		}
	}
	for _, c := range r.db.classrooms {
		if c.TeacherID != nil && *c.TeacherID == id {
			c.TeacherID = nil
		}
	}
	for reqID, req := range r.db.requests {
		if req.UserID == id {
			delete(r.db.requests, reqID)
		}
	}
	for subjectID, s := range r.db.subjects {
		if s.TeacherID == id {
			r.db.deleteSubject(subjectID)
		}
	}
	for subID, sub := range r.db.submissions {
		if sub.StudentID == id {
			r.db.deleteSubmission(subID)
		}
	}
	delete(r.db.accounts, id)
	return nil
}

func (r *accountRepository) AssignClassroom(ctx context.Context, classroomID uuid.UUID, studentIDs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range studentIDs {
		if a, ok := r.db.accounts[id]; ok && a.Role == entity.RoleStudent {
			cid := classroomID
			a.ClassroomID = &cid
		}
	}
	return nil
}

func (r *accountRepository) RemoveFromClassroom(ctx context.Context, classroomID, studentID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.accounts[studentID]
	if !ok || a.ClassroomID == nil || *a.ClassroomID != classroomID {
		return gorm.ErrRecordNotFound
	}
	a.ClassroomID = nil
	return nil
}
