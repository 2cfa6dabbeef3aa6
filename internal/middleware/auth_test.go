package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *AuthMiddleware, roles ...entity.Role) *gin.Engine {
	r := gin.New()
	r.GET("/protected", m.RequireAuth(), m.RequireRoles(roles...), func(c *gin.Context) {
		auth, err := authctx.From(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": auth.AccountID.String(), "role": auth.Role})
	})
	return r
}

func issue(t *testing.T, tokens *token.Manager, role entity.Role) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	signed, _, err := tokens.Issue(id, token.Claims{Role: string(role)})
	require.NoError(t, err)
	return signed, id
}

func TestRequireAuth(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour)
	r := newRouter(NewAuthMiddleware(tokens), entity.RoleSuperAdmin)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Non autorisé"}`, w.Body.String())
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid header", func(t *testing.T) {
		signed, id := issue(t, tokens, entity.RoleSuperAdmin)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), id.String())
	})

	t.Run("query token", func(t *testing.T) {
		signed, _ := issue(t, tokens, entity.RoleSuperAdmin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?token="+signed, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRolesDeniesOtherRoles(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour)
	r := newRouter(NewAuthMiddleware(tokens), entity.RoleSuperAdmin)

	for _, role := range []entity.Role{entity.RoleDepartmentAdmin, entity.RoleStaff, entity.RoleProfessor, entity.RoleStudent, entity.RoleAdmin} {
		signed, _ := issue(t, tokens, role)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code, role)
		assert.JSONEq(t, `{"error":"Non autorisé"}`, w.Body.String())
	}
}

func TestRequireCorrectorToken(t *testing.T) {
	call := func(secret, header string) int {
		r := gin.New()
		r.PUT("/internal", RequireCorrectorToken(secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		req := httptest.NewRequest(http.MethodPut, "/internal", nil)
		if header != "" {
			req.Header.Set("X-Corrector-Token", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("abc", "abc"))
	assert.Equal(t, http.StatusUnauthorized, call("abc", "abd"))
	assert.Equal(t, http.StatusUnauthorized, call("", ""))
}
