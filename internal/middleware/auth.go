package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	tokens *token.Manager
}

func NewAuthMiddleware(tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func deny(c *gin.Context, status int) {
	err := apperror.ErrUnauthorized
	if status == http.StatusForbidden {
		err = apperror.ErrForbidden
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			deny(c, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			deny(c, http.StatusUnauthorized)
			return
		}

		role := entity.Role(claims.Role)
		if !role.Valid() {
			deny(c, http.StatusUnauthorized)
			return
		}

		authctx.Set(c, authctx.AuthContext{
			AccountID:      uuid.MustParse(claims.Subject),
			Role:           role,
			DepartmentID:   optionalUUID(claims.DepartmentID),
			DepartmentName: claims.DepartmentName,
			ClassroomID:    optionalUUID(claims.ClassroomID),
		})
		c.Next()
	}
}

// RequireRoles must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := authctx.From(c)
		if err != nil {
			deny(c, http.StatusUnauthorized)
			return
		}
		if !auth.Is(roles...) {
			deny(c, http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// RequireCorrectorToken guards the endpoints used by the automated
// corrector. An empty secret disables them.
func RequireCorrectorToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Corrector-Token")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			deny(c, http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
