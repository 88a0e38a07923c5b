package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dhaka, _    = time.LoadLocation("Asia/Dhaka")
	testDay     = time.Date(2024, 3, 10, 0, 0, 0, 0, dhaka)
	defaultRule = attendance.TimingRules{GracePeriodMinutes: 30, HalfDayBoundary: "12:00"}
)

func at(hour, minute, second int) time.Time {
	return time.Date(2024, 3, 10, hour, minute, second, 0, dhaka)
}

func TestClassifyIn(t *testing.T) {
	tests := []struct {
		name      string
		firstIn   time.Time
		verdict   attendance.Verdict
		late      int
		early     int
		halfDay   bool
		usedGrace bool
	}{
		{name: "early arrival", firstIn: at(8, 45, 0), verdict: attendance.VerdictEarly, early: 15},
		{name: "exactly on shift start", firstIn: at(9, 0, 0), verdict: attendance.VerdictOnTime},
		{name: "seconds past shift start are on time", firstIn: at(9, 0, 30), verdict: attendance.VerdictOnTime},
		{name: "one minute late is within grace", firstIn: at(9, 1, 0), verdict: attendance.VerdictOnTimeGrace, late: 1, usedGrace: true},
		{name: "grace end is inclusive", firstIn: at(9, 30, 0), verdict: attendance.VerdictOnTimeGrace, late: 30, usedGrace: true},
		{name: "past grace is late", firstIn: at(9, 31, 0), verdict: attendance.VerdictLate, late: 31},
		{name: "just before half-day boundary", firstIn: at(11, 59, 0), verdict: attendance.VerdictLate, late: 179},
		{name: "half-day boundary is inclusive", firstIn: at(12, 0, 0), verdict: attendance.VerdictHalfDay, late: 180, halfDay: true},
		{name: "partial minutes are floored", firstIn: at(9, 45, 59), verdict: attendance.VerdictLate, late: 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyIn(tt.firstIn, testDay, "09:00", defaultRule)
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, got.Verdict)
			assert.Equal(t, tt.late, got.LateMinutes)
			assert.Equal(t, tt.early, got.EarlyMinutes)
			assert.Equal(t, tt.halfDay, got.IsHalfDay)
			assert.Equal(t, tt.usedGrace, got.UsedGrace)
		})
	}
}

func TestClassifyIn_ZeroGrace(t *testing.T) {
	got, err := ClassifyIn(at(9, 1, 0), testDay, "09:00", attendance.TimingRules{HalfDayBoundary: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, attendance.VerdictLate, got.Verdict)
	assert.Equal(t, 1, got.LateMinutes)
}

func TestClassifyIn_ZeroGraceSecondsLate(t *testing.T) {
	got, err := ClassifyIn(at(9, 0, 59), testDay, "09:00", attendance.TimingRules{HalfDayBoundary: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, attendance.VerdictOnTime, got.Verdict)
	assert.Equal(t, 0, got.LateMinutes)
	assert.False(t, got.UsedGrace)
}

func TestClassifyIn_InvalidShift(t *testing.T) {
	_, err := ClassifyIn(at(9, 0, 0), testDay, "9am", defaultRule)
	assert.Error(t, err)
}

func TestClassifyOut(t *testing.T) {
	t.Run("on shift end", func(t *testing.T) {
		got, err := ClassifyOut(at(18, 0, 0), testDay, "18:00")
		require.NoError(t, err)
		assert.Equal(t, OutResult{}, got)
	})

	t.Run("overtime", func(t *testing.T) {
		got, err := ClassifyOut(at(18, 30, 0), testDay, "18:00")
		require.NoError(t, err)
		assert.True(t, got.HasOvertime)
		assert.Equal(t, 30, got.OvertimeMinutes)
		assert.False(t, got.IsEarlyLeave)
	})

	t.Run("early leave", func(t *testing.T) {
		got, err := ClassifyOut(at(17, 0, 0), testDay, "18:00")
		require.NoError(t, err)
		assert.True(t, got.IsEarlyLeave)
		assert.Equal(t, 60, got.EarlyLeaveMinutes)
		assert.False(t, got.HasOvertime)
	})
}

func TestRecompute_WorkingDay(t *testing.T) {
	rec := attendance.Record{
		Date: testDay,
		Punches: []attendance.Punch{
			{ID: "4", Timestamp: at(18, 15, 0), Direction: attendance.DirectionOut},
			{ID: "1", Timestamp: at(9, 40, 0), Direction: attendance.DirectionIn},
			{ID: "2", Timestamp: at(13, 0, 0), Direction: attendance.DirectionOut},
			{ID: "3", Timestamp: at(13, 45, 0), Direction: attendance.DirectionIn},
		},
	}

	require.NoError(t, Recompute(&rec, attendance.Shift{Start: "09:00", End: "18:00"}, defaultRule, false))

	assert.Equal(t, "1", rec.Punches[0].ID)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, attendance.VerdictLate, rec.Verdict)
	assert.Equal(t, 40, rec.LateMinutes)
	assert.Equal(t, 45, rec.TotalBreakMinutes)
	assert.Equal(t, 8*60+35-45, rec.NetWorkingMinutes)
	assert.True(t, rec.HasOvertime)
	assert.Equal(t, 15, rec.OvertimeMinutes)
	assert.False(t, rec.IsOffDay)
}

func TestRecompute_OffDay(t *testing.T) {
	rec := attendance.Record{
		Date: testDay,
		Punches: []attendance.Punch{
			{Timestamp: at(10, 0, 0), Direction: attendance.DirectionIn},
			{Timestamp: at(14, 0, 0), Direction: attendance.DirectionOut},
		},
	}

	require.NoError(t, Recompute(&rec, attendance.Shift{Start: "09:00", End: "18:00"}, defaultRule, true))

	assert.Equal(t, attendance.VerdictOffDayOvertime, rec.Verdict)
	assert.True(t, rec.IsOffDay)
	assert.True(t, rec.IsOffDayWork)
	assert.Equal(t, 240, rec.OvertimeMinutes)
	assert.True(t, rec.HasOvertime)
	assert.Zero(t, rec.LateMinutes)
	assert.False(t, rec.IsEarlyLeave)
}

func TestRecompute_OnlyIn(t *testing.T) {
	rec := attendance.Record{
		Date:    testDay,
		Punches: []attendance.Punch{{Timestamp: at(12, 30, 0), Direction: attendance.DirectionIn}},
	}

	require.NoError(t, Recompute(&rec, attendance.Shift{Start: "09:00", End: "18:00"}, defaultRule, false))

	assert.Equal(t, attendance.VerdictHalfDay, rec.Verdict)
	assert.True(t, rec.IsHalfDay)
	assert.Nil(t, rec.LastOut)
	assert.Zero(t, rec.NetWorkingMinutes)
	assert.False(t, rec.IsEarlyLeave)
}

func TestRecompute_ClearsStaleFields(t *testing.T) {
	rec := attendance.Record{
		Date:        testDay,
		Verdict:     attendance.VerdictHalfDay,
		IsHalfDay:   true,
		LateMinutes: 200,
		Punches:     []attendance.Punch{{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn}},
	}

	require.NoError(t, Recompute(&rec, attendance.Shift{Start: "09:00", End: "18:00"}, defaultRule, false))

	assert.Equal(t, attendance.VerdictOnTime, rec.Verdict)
	assert.False(t, rec.IsHalfDay)
	assert.Zero(t, rec.LateMinutes)
}
