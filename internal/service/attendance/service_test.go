package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPolicy struct {
	policy late.Policy
}

func (f fixedPolicy) GetPolicy(ctx context.Context) (late.Policy, error) {
	return f.policy, nil
}

// weekendCalendar treats Fridays and Saturdays as off-days.
type weekendCalendar struct{}

func (weekendCalendar) Classify(ctx context.Context, day time.Time) (holiday.DayKind, error) {
	switch day.Weekday() {
	case time.Friday, time.Saturday:
		return holiday.DayWeekend, nil
	}
	return holiday.DayWorking, nil
}

type attendanceFixture struct {
	store   *memory.Store
	svc     *AttendanceServiceImpl
	records attendance.AttendanceRepository
	hub     *sse.Hub
	emp     employee.Employee
}

func newAttendanceFixture(t *testing.T) attendanceFixture {
	t.Helper()
	store := memory.NewStore()
	emp := store.PutEmployee(employee.Employee{
		EmployeeCode: "EMP-001",
		FullName:     "Test Employee",
		ShiftStart:   "09:00",
		ShiftEnd:     "18:00",
		IsActive:     true,
	})
	records := memory.NewAttendanceRepository(store)
	hub := sse.NewHub()
	svc := NewAttendanceService(
		store,
		keylock.NewMemoryLocker(),
		records,
		memory.NewEmployeeRepository(store),
		fixedPolicy{policy: late.DefaultPolicy()},
		weekendCalendar{},
		Options{Location: dhaka, Now: func() time.Time { return at(20, 0, 0) }, Events: hub},
	)
	return attendanceFixture{store: store, svc: svc, records: records, hub: hub, emp: emp}
}

func (f attendanceFixture) punch(t *testing.T, ts time.Time, dir attendance.Direction) attendance.PunchResult {
	t.Helper()
	res, err := f.svc.RecordPunch(context.Background(), attendance.RecordPunchRequest{
		EmployeeID: f.emp.ID,
		Timestamp:  ts,
		Direction:  dir,
		Source:     "test",
	})
	require.NoError(t, err)
	return res
}

func TestRecordPunch_InfersDirection(t *testing.T) {
	f := newAttendanceFixture(t)

	f.punch(t, at(9, 40, 0), "")
	res := f.punch(t, at(18, 10, 0), "")

	require.Len(t, res.Record.Punches, 2)
	assert.Equal(t, attendance.DirectionIn, res.Record.Punches[0].Direction)
	assert.Equal(t, attendance.DirectionOut, res.Record.Punches[1].Direction)
	assert.Equal(t, attendance.VerdictLate, res.Record.Verdict)
	assert.Equal(t, 40, res.Record.LateMinutes)
	assert.Equal(t, 10, res.Record.OvertimeMinutes)
	assert.True(t, res.Record.Date.Equal(testDay))
}

func TestRecordPunch_DuplicateIsIdempotent(t *testing.T) {
	f := newAttendanceFixture(t)

	first := f.punch(t, at(9, 0, 0), attendance.DirectionIn)
	dup := f.punch(t, at(9, 0, 30), attendance.DirectionIn)

	assert.True(t, dup.Duplicate)
	assert.Len(t, dup.Record.Punches, 1)

	stored, err := f.records.GetByID(context.Background(), first.Record.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Punches, 1)
	assert.Equal(t, attendance.VerdictOnTime, stored.Verdict)
}

func TestRecordPunch_PublishesToFeed(t *testing.T) {
	f := newAttendanceFixture(t)
	events, cleanup := f.hub.Subscribe(sse.TopicAttendance)
	defer cleanup()

	f.punch(t, at(9, 40, 0), attendance.DirectionIn)
	f.punch(t, at(9, 40, 20), attendance.DirectionIn)

	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, "punch.recorded", ev.Event)
	day, ok := ev.Data.(attendance.DayEvent)
	require.True(t, ok)
	assert.Equal(t, f.emp.ID, day.EmployeeID)
	assert.Equal(t, 40, day.LateMinutes)
}

func TestRecordPunch_UsesLocalCalendarDay(t *testing.T) {
	f := newAttendanceFixture(t)

	// 20:30 UTC on the 9th is 02:30 on the 10th in Dhaka
	res := f.punch(t, time.Date(2024, 3, 9, 20, 30, 0, 0, time.UTC), attendance.DirectionIn)

	assert.True(t, res.Record.Date.Equal(testDay))
	assert.Equal(t, attendance.VerdictEarly, res.Record.Verdict)
}

func TestRecordPunch_OffDay(t *testing.T) {
	f := newAttendanceFixture(t)
	friday := time.Date(2024, 3, 8, 10, 0, 0, 0, dhaka)

	f.punch(t, friday, attendance.DirectionIn)
	res := f.punch(t, friday.Add(4*time.Hour), attendance.DirectionOut)

	assert.Equal(t, attendance.VerdictOffDayOvertime, res.Record.Verdict)
	assert.True(t, res.Record.IsOffDayWork)
	assert.Equal(t, 240, res.Record.OvertimeMinutes)
}

func TestRecordPunch_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid request", func(t *testing.T) {
		f := newAttendanceFixture(t)
		_, err := f.svc.RecordPunch(ctx, attendance.RecordPunchRequest{EmployeeID: f.emp.ID})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("unknown employee", func(t *testing.T) {
		f := newAttendanceFixture(t)
		_, err := f.svc.RecordPunch(ctx, attendance.RecordPunchRequest{EmployeeID: "missing", Timestamp: at(9, 0, 0)})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("inactive employee", func(t *testing.T) {
		f := newAttendanceFixture(t)
		require.NoError(t, memory.NewEmployeeRepository(f.store).SetActive(ctx, f.emp.ID, false))
		_, err := f.svc.RecordPunch(ctx, attendance.RecordPunchRequest{EmployeeID: f.emp.ID, Timestamp: at(9, 0, 0)})
		assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
	})

	t.Run("locked day", func(t *testing.T) {
		f := newAttendanceFixture(t)
		f.punch(t, at(9, 0, 0), attendance.DirectionIn)
		require.NoError(t, f.records.LockRange(ctx, f.emp.ID, testDay, testDay.AddDate(0, 0, 1)))

		_, err := f.svc.RecordPunch(ctx, attendance.RecordPunchRequest{EmployeeID: f.emp.ID, Timestamp: at(18, 0, 0)})
		assert.ErrorIs(t, err, attendance.ErrAttendanceLocked)
	})
}

func TestCorrectPunches(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	res := f.punch(t, at(12, 30, 0), attendance.DirectionIn)
	require.True(t, res.Record.IsHalfDay)

	corrected, err := f.svc.CorrectPunches(ctx, attendance.CorrectPunchesRequest{
		RecordID: res.Record.ID,
		Reason:   "device clock was wrong",
		Actor:    "manager-1",
		Punches: []attendance.PunchInput{
			{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn},
			{Timestamp: at(18, 0, 0), Direction: attendance.DirectionOut},
		},
	})
	require.NoError(t, err)

	assert.True(t, corrected.IsEdited)
	assert.False(t, corrected.IsHalfDay)
	assert.Equal(t, attendance.VerdictOnTime, corrected.Verdict)
	assert.Equal(t, 540, corrected.NetWorkingMinutes)
	require.Len(t, corrected.AuditLog, 1)
	assert.Equal(t, "manager-1", corrected.AuditLog[0].Actor)
	assert.Equal(t, attendance.VerdictHalfDay, corrected.AuditLog[0].PreviousVerdict)
	assert.Len(t, corrected.AuditLog[0].PreviousPunches, 1)
}

func TestCorrectPunches_RejectsOtherDay(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	res := f.punch(t, at(9, 0, 0), attendance.DirectionIn)

	_, err := f.svc.CorrectPunches(ctx, attendance.CorrectPunchesRequest{
		RecordID: res.Record.ID,
		Reason:   "wrong day punch",
		Punches:  []attendance.PunchInput{{Timestamp: at(9, 0, 0).AddDate(0, 0, 1), Direction: attendance.DirectionIn}},
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "punches", verrs[0].Field)
}

func TestMarkAbsent(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	idle := f.store.PutEmployee(employee.Employee{EmployeeCode: "EMP-002", IsActive: true})
	f.store.PutEmployee(employee.Employee{EmployeeCode: "EMP-003", IsActive: false})
	f.punch(t, at(9, 0, 0), attendance.DirectionIn)

	result, err := f.svc.MarkAbsent(ctx, at(23, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", result.Date)
	assert.Equal(t, 1, result.Absent)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)

	rec, err := f.records.GetByEmployeeAndDate(ctx, idle.ID, testDay)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)

	again, err := f.svc.MarkAbsent(ctx, testDay)
	require.NoError(t, err)
	assert.Zero(t, again.Absent)
	assert.Equal(t, 2, again.Skipped)
}

func TestMarkAbsent_Weekend(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t)
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, dhaka)

	result, err := f.svc.MarkAbsent(ctx, saturday)
	require.NoError(t, err)
	assert.Equal(t, 1, result.OffDay)
	assert.Zero(t, result.Absent)

	rec, err := f.records.GetByEmployeeAndDate(ctx, f.emp.ID, saturday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusWeekend, rec.Status)
	assert.True(t, rec.IsOffDay)
}
