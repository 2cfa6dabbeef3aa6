package account

import (
	"context"
	"net/http"
	"testing"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	"anoa.com/campusadmin/internal/modules/account/dto"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setup() (*inmemtest.DB, *accountService) {
	db := inmemtest.NewDB()
	svc := NewAccountService(
		inmemtest.NewAccountRepository(db),
		inmemtest.NewDepartmentRepository(db),
		inmemtest.NewClassroomRepository(db),
	).(*accountService)
	svc.hashCost = bcrypt.MinCost
	return db, svc
}

func req(email string) dto.CreateAccountRequest {
	return dto.CreateAccountRequest{FirstName: "Fatou", LastName: "Sow", Email: email, Password: "password123"}
}

func status(err error) int {
	return apperror.MapErrorToStatus(err)
}

// headDepartment creates a manager heading a fresh department.
func headDepartment(t *testing.T, db *inmemtest.DB, svc *accountService, email, name string) (authctx.AuthContext, *entity.Department) {
	t.Helper()
	manager, err := svc.CreateManager(context.Background(), req(email))
	require.NoError(t, err)
	dept := &entity.Department{Name: name, ManagerID: &manager.ID}
	require.NoError(t, inmemtest.NewDepartmentRepository(db).Create(context.Background(), dept))
	return authctx.AuthContext{AccountID: manager.ID, Role: entity.RoleDepartmentAdmin, DepartmentID: &dept.ID}, dept
}

func TestCreateManagerValidation(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()

	created, err := svc.CreateManager(ctx, req(" Chef@Campus.test "))
	require.NoError(t, err)
	assert.Equal(t, "chef@campus.test", created.Email)
	assert.Equal(t, entity.RoleDepartmentAdmin, created.Role)

	_, err = svc.CreateManager(ctx, req("chef@campus.test"))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, status(err))
	assert.Equal(t, "Cet email est déjà utilisé", err.Error())

	_, err = svc.CreateManager(ctx, req("not-an-email"))
	assert.Equal(t, http.StatusBadRequest, status(err))

	blank := req("other@campus.test")
	blank.FirstName = "  "
	_, err = svc.CreateManager(ctx, blank)
	assert.Equal(t, http.StatusBadRequest, status(err))
}

func TestAvailableManagersExcludeHeads(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	headDepartment(t, db, svc, "busy@campus.test", "Finances")
	free, err := svc.CreateManager(ctx, req("free@campus.test"))
	require.NoError(t, err)

	all, err := svc.ListManagers(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	available, err := svc.ListAvailableManagers(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, free.ID, available[0].ID)
}

func TestDeleteManagerKeepsDepartment(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	caller, dept := headDepartment(t, db, svc, "chef@campus.test", "Finances")

	require.NoError(t, svc.DeleteManager(ctx, caller.AccountID))

	reloaded, err := inmemtest.NewDepartmentRepository(db).FindByID(ctx, dept.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ManagerID)
}

func TestUpdateManagerRejectsOtherRoles(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	caller, _ := headDepartment(t, db, svc, "chef@campus.test", "Finances")
	staff, err := svc.CreateStaff(ctx, caller, req("staff@campus.test"))
	require.NoError(t, err)

	_, err = svc.UpdateManager(ctx, staff.ID, dto.UpdateAccountRequest{FirstName: "A", LastName: "B", Email: "staff@campus.test"})
	assert.Equal(t, http.StatusNotFound, status(err))
}

func TestStaffIsScopedToTheManagedDepartment(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	alice, aliceDept := headDepartment(t, db, svc, "alice@campus.test", "Finances")
	bob, _ := headDepartment(t, db, svc, "bob@campus.test", "RH")

	staff, err := svc.CreateStaff(ctx, alice, req("staff@campus.test"))
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, staff.Role)
	require.NotNil(t, staff.DepartmentID)
	assert.Equal(t, aliceDept.ID, *staff.DepartmentID)
	assert.Equal(t, "Finances", staff.DepartmentName)

	list, err := svc.ListStaff(ctx, bob, "")
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	update := dto.UpdateAccountRequest{FirstName: "X", LastName: "Y", Email: "staff@campus.test"}
	_, err = svc.UpdateStaff(ctx, bob, staff.ID, update)
	assert.Equal(t, http.StatusForbidden, status(err))
	assert.Equal(t, http.StatusForbidden, status(svc.DeleteStaff(ctx, bob, staff.ID)))

	// Nothing changed on the refused calls.
	list, err = svc.ListStaff(ctx, alice, "")
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Fatou", list.Users[0].FirstName)

	assert.Equal(t, http.StatusNotFound, status(svc.DeleteStaff(ctx, alice, uuid.New())))
	require.NoError(t, svc.DeleteStaff(ctx, alice, staff.ID))
}

func TestManagerWithoutDepartmentCannotCreateStaff(t *testing.T) {
	_, svc := setup()
	ctx := context.Background()
	manager, err := svc.CreateManager(ctx, req("idle@campus.test"))
	require.NoError(t, err)

	caller := authctx.AuthContext{AccountID: manager.ID, Role: entity.RoleDepartmentAdmin}
	_, err = svc.CreateStaff(ctx, caller, req("staff@campus.test"))
	assert.Equal(t, http.StatusForbidden, status(err))

	_, err = svc.CreateStaff(ctx, authctx.AuthContext{AccountID: uuid.New(), Role: entity.RoleStaff}, req("s2@campus.test"))
	assert.Equal(t, http.StatusForbidden, status(err))
}

func TestSchoolAccounts(t *testing.T) {
	db, svc := setup()
	ctx := context.Background()
	classroom := &entity.Classroom{Name: "L1"}
	require.NoError(t, inmemtest.NewClassroomRepository(db).Create(ctx, classroom))

	student, err := svc.CreateSchoolAccount(ctx, dto.CreateSchoolAccountRequest{
		CreateAccountRequest: req("etu@campus.test"),
		Role:                 entity.RoleStudent,
		ClassroomID:          &classroom.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, &classroom.ID, student.ClassroomID)

	_, err = svc.CreateSchoolAccount(ctx, dto.CreateSchoolAccountRequest{
		CreateAccountRequest: req("prof@campus.test"),
		Role:                 entity.RoleProfessor,
		ClassroomID:          &classroom.ID,
	})
	assert.Equal(t, http.StatusBadRequest, status(err))

	_, err = svc.CreateSchoolAccount(ctx, dto.CreateSchoolAccountRequest{
		CreateAccountRequest: req("root@campus.test"),
		Role:                 entity.RoleSuperAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, status(err))

	_, err = svc.CreateSchoolAccount(ctx, dto.CreateSchoolAccountRequest{
		CreateAccountRequest: req("prof@campus.test"),
		Role:                 entity.RoleProfessor,
	})
	require.NoError(t, err)

	students, err := svc.ListSchoolAccounts(ctx, dto.AccountListFilter{Role: "student"})
	require.NoError(t, err)
	assert.Equal(t, 1, students.Total)

	_, err = svc.ListSchoolAccounts(ctx, dto.AccountListFilter{Role: "ADMIN_DPT"})
	assert.Equal(t, http.StatusBadRequest, status(err))

	updated, err := svc.UpdateSchoolAccount(ctx, student.ID, dto.UpdateSchoolAccountRequest{
		UpdateAccountRequest: dto.UpdateAccountRequest{FirstName: "Fatou", LastName: "Sow", Email: "etu@campus.test"},
	})
	require.NoError(t, err)
	assert.Equal(t, &classroom.ID, updated.ClassroomID)

	stored, err := inmemtest.NewAccountRepository(db).FindByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, &classroom.ID, stored.ClassroomID)

	other := &entity.Classroom{Name: "L2"}
	require.NoError(t, inmemtest.NewClassroomRepository(db).Create(ctx, other))
	moved, err := svc.UpdateSchoolAccount(ctx, student.ID, dto.UpdateSchoolAccountRequest{
		UpdateAccountRequest: dto.UpdateAccountRequest{FirstName: "Fatou", LastName: "Sow", Email: "etu@campus.test"},
		ClassroomID:          &other.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, &other.ID, moved.ClassroomID)

	require.NoError(t, svc.DeleteSchoolAccount(ctx, student.ID))
	assert.Equal(t, http.StatusNotFound, status(svc.DeleteSchoolAccount(ctx, student.ID)))
}
