package bootstrap

import (
	"context"
	"testing"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedSuperAdmin(t *testing.T) {
	ctx := context.Background()
	accounts := inmemtest.NewAccountRepository(inmemtest.NewDB())

	require.NoError(t, SeedSuperAdmin(ctx, accounts, "root@campus.test", "motdepasse", bcrypt.MinCost))

	admin, err := accounts.FindByEmail(ctx, "root@campus.test")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSuperAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("motdepasse")))

	// Second run keeps the existing account untouched.
	require.NoError(t, SeedSuperAdmin(ctx, accounts, "root@campus.test", "autrechose", bcrypt.MinCost))
	again, err := accounts.FindByEmail(ctx, "root@campus.test")
	require.NoError(t, err)
	assert.Equal(t, admin.PasswordHash, again.PasswordHash)
}

func TestSeedSuperAdminSkipsOrRejects(t *testing.T) {
	ctx := context.Background()
	accounts := inmemtest.NewAccountRepository(inmemtest.NewDB())

	require.NoError(t, SeedSuperAdmin(ctx, accounts, "", "", bcrypt.MinCost))
	assert.Error(t, SeedSuperAdmin(ctx, accounts, "root@campus.test", "court", bcrypt.MinCost))

	_, err := accounts.FindByEmail(ctx, "root@campus.test")
	assert.Error(t, err)
}
