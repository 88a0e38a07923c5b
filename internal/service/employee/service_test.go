package employee

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmployeeTestService() (*memory.Store, employee.EmployeeService) {
	store := memory.NewStore()
	return store, NewEmployeeService(store, memory.NewEmployeeRepository(store), memory.NewUserRepository(store))
}

func TestDeactivateEmployee(t *testing.T) {
	ctx := context.Background()
	store, svc := newEmployeeTestService()
	u := store.PutUser(user.User{Email: "a@example.com", Role: user.RoleEmployee, IsActive: true})
	emp := store.PutEmployee(employee.Employee{EmployeeCode: "E-1", UserID: &u.ID, IsActive: true})

	require.NoError(t, svc.DeactivateEmployee(ctx, emp.ID))

	gotEmp, err := svc.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.False(t, gotEmp.IsActive)

	gotUser, err := memory.NewUserRepository(store).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, gotUser.IsActive)

	assert.ErrorIs(t, svc.DeactivateEmployee(ctx, emp.ID), employee.ErrEmployeeAlreadyInactive)
}

func TestDeactivateEmployee_MissingUserRollsBack(t *testing.T) {
	ctx := context.Background()
	store, svc := newEmployeeTestService()
	missing := "no-such-user"
	emp := store.PutEmployee(employee.Employee{EmployeeCode: "E-1", UserID: &missing, IsActive: true})

	err := svc.DeactivateEmployee(ctx, emp.ID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	got, err := svc.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestFindByDeviceUser(t *testing.T) {
	ctx := context.Background()
	store, svc := newEmployeeTestService()
	bio := "1001"
	byBio := store.PutEmployee(employee.Employee{EmployeeCode: "E-1", BiometricID: &bio})
	byCode := store.PutEmployee(employee.Employee{EmployeeCode: "E-2"})

	got, err := svc.FindByDeviceUser(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, byBio.ID, got.ID)

	got, err = svc.FindByDeviceUser(ctx, "E-2")
	require.NoError(t, err)
	assert.Equal(t, byCode.ID, got.ID)

	_, err = svc.FindByDeviceUser(ctx, "nobody")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestMigrateLeaveBuckets(t *testing.T) {
	ctx := context.Background()
	store, svc := newEmployeeTestService()
	legacy := store.PutEmployee(employee.Employee{
		EmployeeCode: "E-1",
		LeaveBalance: leave.Balance{
			leave.LegacyBucketEarned: decimal.NewFromInt(4),
			leave.BucketAnnual:       decimal.NewFromInt(2),
			leave.BucketSick:         decimal.NewFromInt(5),
		},
	})

	result, err := svc.MigrateLeaveBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Migrated)

	got, err := svc.GetEmployee(ctx, legacy.ID)
	require.NoError(t, err)
	assert.True(t, got.LeaveBalance.Get(leave.BucketAnnual).Equal(decimal.NewFromInt(6)))
	assert.True(t, got.LeaveBalance.Get(leave.BucketSick).Equal(decimal.NewFromInt(5)))
	_, hasEarned := got.LeaveBalance[leave.LegacyBucketEarned]
	assert.False(t, hasEarned)
	assert.Len(t, got.LeaveBalance, len(leave.CanonicalBuckets))

	again, err := svc.MigrateLeaveBuckets(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Migrated)
}
