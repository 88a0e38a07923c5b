package late

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dhaka, _ = time.LoadLocation("Asia/Dhaka")

type lateFixture struct {
	store   *memory.Store
	svc     *LateServiceImpl
	records attendance.AttendanceRepository
	emp     employee.Employee
}

func newLateFixture(t *testing.T) lateFixture {
	t.Helper()
	store := memory.NewStore()
	emp := store.PutEmployee(employee.Employee{
		EmployeeCode: "EMP-001",
		BasicSalary:  decimal.NewFromInt(30000),
		IsActive:     true,
	})
	records := memory.NewAttendanceRepository(store)
	svc := NewLateService(
		store,
		memory.NewLateRepository(store),
		memory.NewPolicyRepository(store),
		records,
		memory.NewLeaveApplicationRepository(store),
		dhaka,
	)
	return lateFixture{store: store, svc: svc, records: records, emp: emp}
}

func (f lateFixture) record(t *testing.T, day int, verdict attendance.Verdict, lateMinutes int) attendance.Record {
	t.Helper()
	rec, err := f.records.Save(context.Background(), attendance.Record{
		EmployeeID:  f.emp.ID,
		Date:        time.Date(2024, 3, day, 0, 0, 0, 0, dhaka),
		Status:      attendance.StatusPresent,
		Verdict:     verdict,
		LateMinutes: lateMinutes,
		IsHalfDay:   verdict == attendance.VerdictHalfDay,
	})
	require.NoError(t, err)
	return rec
}

func (f lateFixture) file(t *testing.T, rec attendance.Record) late.Event {
	t.Helper()
	event, err := f.svc.FileLate(context.Background(), late.FileLateRequest{AttendanceID: rec.ID, FiledBy: "emp"})
	require.NoError(t, err)
	return event
}

func TestGetPolicy_DefaultInitialises(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)

	policy, err := f.svc.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, late.PreferLeave, policy.DeductionPreference)
	assert.Equal(t, 2, policy.GraceDaysPerMonth)

	stored, err := memory.NewPolicyRepository(f.store).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, policy.HalfDaysToFullDay, stored.HalfDaysToFullDay)
}

func TestUpdatePolicy(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)

	grace := 3
	pref := late.PreferSalary
	updated, err := f.svc.UpdatePolicy(ctx, late.UpdatePolicyRequest{
		GraceDaysPerMonth:   &grace,
		DeductionPreference: &pref,
		UpdatedBy:           "hr-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.GraceDaysPerMonth)
	assert.Equal(t, late.PreferSalary, updated.DeductionPreference)
	require.NotNil(t, updated.UpdatedBy)

	zero := 0
	_, err = f.svc.UpdatePolicy(ctx, late.UpdatePolicyRequest{HalfDaysToFullDay: &zero})
	assert.ErrorIs(t, err, late.ErrInvalidPolicy)

	bad := "25:00"
	_, err = f.svc.UpdatePolicy(ctx, late.UpdatePolicyRequest{HalfDayBoundary: &bad})
	assert.ErrorIs(t, err, late.ErrInvalidPolicy)
	assert.ErrorIs(t, err, timeutil.ErrInvalidTimeFormat)
}

func TestFileLate(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)

	first := f.file(t, f.record(t, 4, attendance.VerdictLate, 40))
	second := f.file(t, f.record(t, 5, attendance.VerdictLate, 50))

	assert.Equal(t, late.StatusPending, first.Status)
	assert.Equal(t, 1, first.MonthlyLateCount)
	assert.Equal(t, 2, second.MonthlyLateCount)
	assert.Equal(t, 50, second.LateMinutes)

	_, err := f.svc.FileLate(ctx, late.FileLateRequest{AttendanceID: first.AttendanceID})
	assert.ErrorIs(t, err, late.ErrLateAlreadyFiled)
}

func TestFileLate_WithinGracePeriod(t *testing.T) {
	f := newLateFixture(t)

	event := f.file(t, f.record(t, 5, attendance.VerdictOnTimeGrace, 10))

	assert.Equal(t, late.StatusPending, event.Status)
	assert.Equal(t, 10, event.LateMinutes)
	assert.Equal(t, 1, event.MonthlyLateCount)
}

func TestFileLate_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)

	tests := []struct {
		name    string
		rec     attendance.Record
		wantErr error
	}{
		{name: "on time", rec: f.record(t, 4, attendance.VerdictOnTime, 0), wantErr: late.ErrNotLate},
		{name: "half day", rec: f.record(t, 6, attendance.VerdictHalfDay, 190), wantErr: late.ErrHalfDayNotLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.FileLate(ctx, late.FileLateRequest{AttendanceID: tt.rec.ID})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("below threshold", func(t *testing.T) {
		threshold := 45
		_, err := f.svc.UpdatePolicy(ctx, late.UpdatePolicyRequest{LateThresholdMinutes: &threshold})
		require.NoError(t, err)

		rec := f.record(t, 7, attendance.VerdictLate, 40)
		_, err = f.svc.FileLate(ctx, late.FileLateRequest{AttendanceID: rec.ID})
		assert.ErrorIs(t, err, late.ErrBelowThreshold)
	})

	t.Run("someone else's record", func(t *testing.T) {
		rec := f.record(t, 8, attendance.VerdictLate, 50)
		_, err := f.svc.FileLate(ctx, late.FileLateRequest{AttendanceID: rec.ID, OwnerID: "other-employee"})
		assert.ErrorIs(t, err, attendance.ErrUnauthorized)
	})

	t.Run("unknown attendance", func(t *testing.T) {
		_, err := f.svc.FileLate(ctx, late.FileLateRequest{AttendanceID: "missing"})
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestFileLate_AutoApprove(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)
	under := 45
	_, err := f.svc.UpdatePolicy(ctx, late.UpdatePolicyRequest{AutoApproveUnderMinutes: &under})
	require.NoError(t, err)

	short := f.file(t, f.record(t, 4, attendance.VerdictLate, 35))
	long := f.file(t, f.record(t, 5, attendance.VerdictLate, 45))

	assert.Equal(t, late.StatusApproved, short.Status)
	assert.Equal(t, late.StatusPending, long.Status)
}

func TestSetLateStatus(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)
	event := f.file(t, f.record(t, 4, attendance.VerdictLate, 40))

	approved, err := f.svc.SetLateStatus(ctx, late.SetStatusRequest{ID: event.ID, Status: late.StatusApproved, ReviewedBy: "mgr"})
	require.NoError(t, err)
	assert.Equal(t, late.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "mgr", *approved.ReviewedBy)

	_, err = f.svc.SetLateStatus(ctx, late.SetStatusRequest{ID: event.ID, Status: late.StatusRejected, ReviewedBy: "mgr"})
	assert.ErrorIs(t, err, late.ErrLateAlreadyProcessed)

	err = f.svc.DeleteLate(ctx, event.ID)
	assert.ErrorIs(t, err, late.ErrLateAlreadyProcessed)

	_, err = f.svc.SetLateStatus(ctx, late.SetStatusRequest{ID: event.ID, Status: "pending"})
	assert.Error(t, err)
}

func TestSetLateStatus_DeductedIsFinal(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)
	event := f.file(t, f.record(t, 4, attendance.VerdictLate, 40))

	event.IsDeducted = true
	event.DeductionType = late.DeductionSalary
	_, err := memory.NewLateRepository(f.store).Update(ctx, event)
	require.NoError(t, err)

	_, err = f.svc.SetLateStatus(ctx, late.SetStatusRequest{ID: event.ID, Status: late.StatusApproved, ReviewedBy: "mgr"})
	assert.ErrorIs(t, err, late.ErrAlreadyResolved)
}

func TestDeleteLate(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)
	event := f.file(t, f.record(t, 4, attendance.VerdictLate, 40))

	require.NoError(t, f.svc.DeleteLate(ctx, event.ID))
	_, err := f.svc.GetLate(ctx, event.ID)
	assert.ErrorIs(t, err, late.ErrLateNotFound)
}

func TestListLates(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)
	f.file(t, f.record(t, 4, attendance.VerdictLate, 40))
	second := f.file(t, f.record(t, 5, attendance.VerdictLate, 50))
	_, err := f.svc.SetLateStatus(ctx, late.SetStatusRequest{ID: second.ID, Status: late.StatusRejected, ReviewedBy: "mgr"})
	require.NoError(t, err)

	month := "2024-03"
	all, err := f.svc.ListLates(ctx, late.ListLatesRequest{Month: &month})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := "rejected"
	rejected, err := f.svc.ListLates(ctx, late.ListLatesRequest{Status: &status})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, second.ID, rejected[0].ID)

	other := "2024-04"
	none, err := f.svc.ListLates(ctx, late.ListLatesRequest{Month: &other})
	require.NoError(t, err)
	assert.Empty(t, none)

	bogus := "bogus"
	_, err = f.svc.ListLates(ctx, late.ListLatesRequest{Status: &bogus})
	assert.Error(t, err)
}

func TestResolveMonth(t *testing.T) {
	ctx := context.Background()
	f := newLateFixture(t)
	for day := 4; day <= 6; day++ {
		f.file(t, f.record(t, day, attendance.VerdictLate, 40))
	}
	rejected := f.file(t, f.record(t, 7, attendance.VerdictLate, 40))
	_, err := f.svc.SetLateStatus(ctx, late.SetStatusRequest{ID: rejected.ID, Status: late.StatusRejected, ReviewedBy: "mgr"})
	require.NoError(t, err)

	f.record(t, 11, attendance.VerdictHalfDay, 200)
	f.store.PutLeaveApplication(leave.Application{
		EmployeeID: f.emp.ID,
		Bucket:     leave.BucketCasual,
		StartDate:  time.Date(2024, 3, 12, 0, 0, 0, 0, dhaka),
		EndDate:    time.Date(2024, 3, 12, 0, 0, 0, 0, dhaka),
		IsHalfDay:  true,
		Status:     leave.ApplicationApproved,
	})
	// a half-day leave on a half-day attendance date counts once
	f.store.PutLeaveApplication(leave.Application{
		EmployeeID: f.emp.ID,
		StartDate:  time.Date(2024, 3, 11, 0, 0, 0, 0, dhaka),
		IsHalfDay:  true,
		Status:     leave.ApplicationApproved,
	})

	policy, err := f.svc.GetPolicy(ctx)
	require.NoError(t, err)

	input, res, err := f.svc.ResolveMonth(ctx, late.ResolveMonthRequest{
		Employee:       f.emp,
		Month:          timeutil.Month{Year: 2024, Month: time.March},
		OpeningBalance: decimal.NewFromInt(1),
		Policy:         policy,
	})
	require.NoError(t, err)

	assert.Len(t, input.Events, 3)
	assert.Len(t, input.HalfDays, 2)
	// 2 grace, third late takes the only leave unit, the half-day pair falls back to salary
	assert.True(t, res.LateLeaveUnits.Equal(decimal.NewFromInt(1)))
	assert.True(t, res.HalfDaySalaryDeduction.Equal(decimal.NewFromInt(1000)))
	assert.True(t, res.ClosingBalance.IsZero())

	_, _, err = f.svc.ResolveMonth(ctx, late.ResolveMonthRequest{
		Employee:       f.emp,
		Month:          timeutil.Month{Year: 2024, Month: time.March},
		OpeningBalance: decimal.NewFromInt(1),
		Policy:         policy,
		LeaveOnly:      true,
	})
	assert.ErrorIs(t, err, late.ErrInsufficientLeaveBalance)
}
