package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleDepartmentAdmin Role = "ADMIN_DPT"
	RoleStaff           Role = "USER"
	RoleProfessor       Role = "PROFESSOR"
	RoleStudent         Role = "STUDENT"
	RoleAdmin           Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleDepartmentAdmin, RoleStaff, RoleProfessor, RoleStudent, RoleAdmin:
		return true
	}
	return false
}

// Account is any person able to sign in. DepartmentID is set for staff,
// ClassroomID for students; a department admin is linked through
// Department.ManagerID instead.
type Account struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:20;not null;index" json:"role"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index" json:"department_id,omitempty"`
	ClassroomID  *uuid.UUID `gorm:"type:uuid;index" json:"classroom_id,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
