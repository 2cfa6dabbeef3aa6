package request

import (
	"context"
	"net/http"
	"testing"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"
	"anoa.com/campusadmin/internal/modules/request/dto"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db         *inmemtest.DB
	svc        RequestService
	super      authctx.AuthContext
	manager    authctx.AuthContext
	staff      authctx.AuthContext
	department *entity.Department
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := inmemtest.NewDB()
	tick := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	db.Now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	accounts := inmemtest.NewAccountRepository(db)

	mk := func(email string, role entity.Role) *entity.Account {
		a := &entity.Account{FirstName: email, LastName: "N", Email: email, PasswordHash: "x", Role: role}
		require.NoError(t, accounts.Create(ctx, a))
		return a
	}
	super := mk("root@campus.test", entity.RoleSuperAdmin)
	manager := mk("dpt@campus.test", entity.RoleDepartmentAdmin)

	department := &entity.Department{Name: "Informatique", ManagerID: &manager.ID}
	require.NoError(t, inmemtest.NewDepartmentRepository(db).Create(ctx, department))

	staff := &entity.Account{FirstName: "S", LastName: "N", Email: "staff@campus.test", PasswordHash: "x", Role: entity.RoleStaff, DepartmentID: &department.ID}
	require.NoError(t, accounts.Create(ctx, staff))

	svc := NewRequestService(
		inmemtest.NewRequestRepository(db),
		accounts,
		inmemtest.NewDepartmentRepository(db),
		notifService.NewNotificationService(inmemtest.NewNotificationRepository(db), nil),
	)

	return &fixture{
		db:         db,
		svc:        svc,
		super:      authctx.AuthContext{AccountID: super.ID, Role: entity.RoleSuperAdmin},
		manager:    authctx.AuthContext{AccountID: manager.ID, Role: entity.RoleDepartmentAdmin},
		staff:      authctx.AuthContext{AccountID: staff.ID, Role: entity.RoleStaff},
		department: department,
	}
}

func (f *fixture) create(t *testing.T, auth authctx.AuthContext, name string) *dto.RequestResponse {
	t.Helper()
	res, err := f.svc.CreateRequest(context.Background(), auth, dto.CreateRequestRequest{
		Name: name, Category: "Matériel", Quantity: 3, UnitPrice: 12.5,
	})
	require.NoError(t, err)
	return res
}

func TestTotalAmount(t *testing.T) {
	assert.Equal(t, 37.5, TotalAmount(3, 12.5))
	assert.Equal(t, 199.99, TotalAmount(1, 199.99))

	quantity, unitPrice := 3, 0.333
	assert.Equal(t, float64(quantity)*unitPrice, TotalAmount(quantity, unitPrice))
}

func TestAnyRoleFilesRequestWithExactTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prof := &entity.Account{FirstName: "P", LastName: "N", Email: "prof@campus.test", PasswordHash: "x", Role: entity.RoleProfessor}
	require.NoError(t, inmemtest.NewAccountRepository(f.db).Create(ctx, prof))
	caller := authctx.AuthContext{AccountID: prof.ID, Role: entity.RoleProfessor}

	quantity, unitPrice := 3, 0.333
	res, err := f.svc.CreateRequest(ctx, caller, dto.CreateRequestRequest{
		Name: "Câbles", Category: "Matériel", Quantity: quantity, UnitPrice: unitPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(quantity)*unitPrice, res.TotalAmount)
	assert.Nil(t, res.DepartmentID)

	list, err := f.svc.ListRequests(ctx, caller, "")
	require.NoError(t, err)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, res.ID, list.Requests[0].ID)
}

func TestCreateRequestComputesTotalAndDepartment(t *testing.T) {
	f := newFixture(t)

	res := f.create(t, f.staff, "Écrans")
	assert.Equal(t, 37.5, res.TotalAmount)
	assert.Equal(t, entity.RequestPending, res.Status)
	require.NotNil(t, res.DepartmentID)
	assert.Equal(t, f.department.ID, *res.DepartmentID)
	assert.Equal(t, "Informatique", res.DepartmentName)
	require.NotNil(t, res.User)
	assert.Equal(t, f.staff.AccountID.String(), res.User.ID)

	res = f.create(t, f.manager, "Chaises")
	require.NotNil(t, res.DepartmentID)
	assert.Equal(t, f.department.ID, *res.DepartmentID)

	res = f.create(t, f.super, "Serveur")
	assert.Nil(t, res.DepartmentID)

	_, err := f.svc.CreateRequest(context.Background(), f.staff, dto.CreateRequestRequest{
		Name: "Rien", Category: "Matériel", Quantity: 0, UnitPrice: 1,
	})
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))
}

func TestListRequestsScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.staff, "Écrans")
	f.create(t, f.staff, "Claviers")
	f.create(t, f.manager, "Chaises")

	mine, err := f.svc.ListRequests(ctx, f.staff, "")
	require.NoError(t, err)
	require.Equal(t, 2, mine.Total)
	assert.Equal(t, "Claviers", mine.Requests[0].Name)

	all, err := f.svc.ListRequests(ctx, f.super, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	found, err := f.svc.ListRequests(ctx, f.super, "chaise")
	require.NoError(t, err)
	require.Equal(t, 1, found.Total)
	assert.Equal(t, "Chaises", found.Requests[0].Name)
}

func TestUpdateStatusOnlyFromPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, f.staff, "Écrans")

	_, err := f.svc.UpdateStatus(ctx, f.manager, created.ID, dto.UpdateStatusRequest{Status: entity.RequestApproved})
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(err))

	_, err = f.svc.UpdateStatus(ctx, f.super, created.ID, dto.UpdateStatusRequest{Status: entity.RequestPending})
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))

	_, err = f.svc.UpdateStatus(ctx, f.super, uuid.New(), dto.UpdateStatusRequest{Status: entity.RequestApproved})
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(err))

	res, err := f.svc.UpdateStatus(ctx, f.super, created.ID, dto.UpdateStatusRequest{Status: entity.RequestApproved})
	require.NoError(t, err)
	assert.Equal(t, entity.RequestApproved, res.Status)

	_, err = f.svc.UpdateStatus(ctx, f.super, created.ID, dto.UpdateStatusRequest{Status: entity.RequestRejected})
	assert.Equal(t, http.StatusConflict, apperror.MapErrorToStatus(err))

	notes := f.db.Notifications(f.staff.AccountID)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationRequestStatusChanged, notes[0].Type)
	assert.Equal(t, created.ID, *notes[0].ReferenceID)
}

func TestDeleteRequestRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.create(t, f.staff, "Écrans")
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(f.svc.DeleteRequest(ctx, f.manager, pending.ID)))
	require.NoError(t, f.svc.DeleteRequest(ctx, f.staff, pending.ID))
	assert.Equal(t, http.StatusNotFound, apperror.MapErrorToStatus(f.svc.DeleteRequest(ctx, f.staff, pending.ID)))

	decided := f.create(t, f.staff, "Claviers")
	_, err := f.svc.UpdateStatus(ctx, f.super, decided.ID, dto.UpdateStatusRequest{Status: entity.RequestRejected})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, apperror.MapErrorToStatus(f.svc.DeleteRequest(ctx, f.staff, decided.ID)))
	require.NoError(t, f.svc.DeleteRequest(ctx, f.super, decided.ID))
}
