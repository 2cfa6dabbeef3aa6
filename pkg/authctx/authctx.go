// Package authctx carries the caller identity resolved from the session
// token into service calls.
package authctx

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/pkg/apperror"
)

const contextKey = "auth_context"

type AuthContext struct {
	AccountID      uuid.UUID
	Role           entity.Role
	DepartmentID   *uuid.UUID
	DepartmentName string
	ClassroomID    *uuid.UUID
}

// Is reports whether the caller holds one of the given roles.
func (a AuthContext) Is(roles ...entity.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// InDepartment reports whether the caller's tenant is the given department.
func (a AuthContext) InDepartment(id *uuid.UUID) bool {
	return a.DepartmentID != nil && id != nil && *a.DepartmentID == *id
}

func (a AuthContext) InClassroom(id uuid.UUID) bool {
	return a.ClassroomID != nil && *a.ClassroomID == id
}

func Set(c *gin.Context, a AuthContext) {
	c.Set(contextKey, a)
	c.Set("user_id", a.AccountID.String())
}

// From returns the AuthContext stored by the auth middleware.
func From(c *gin.Context) (AuthContext, error) {
	v, exists := c.Get(contextKey)
	if !exists {
		return AuthContext{}, apperror.ErrUnauthorized
	}
	a, ok := v.(AuthContext)
	if !ok || a.AccountID == uuid.Nil {
		return AuthContext{}, apperror.ErrUnauthorized
	}
	return a, nil
}
