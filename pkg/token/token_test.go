package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", 24*time.Hour)
	id := uuid.New()
	dept := uuid.NewString()

	signed, expiresAt, err := m.Issue(id, Claims{
		Role:           "ADMIN_DPT",
		DepartmentID:   dept,
		DepartmentName: "Informatique",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.Subject)
	assert.Equal(t, "ADMIN_DPT", claims.Role)
	assert.Equal(t, dept, claims.DepartmentID)
	assert.Equal(t, "Informatique", claims.DepartmentName)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	signed, _, err := m.Issue(uuid.New(), Claims{Role: "STUDENT"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewManager("other", time.Hour).Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewManager("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
