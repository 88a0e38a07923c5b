package attendance

import (
	"testing"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPunch_DuplicateWindow(t *testing.T) {
	rec := attendance.Record{Date: testDay}
	require.NoError(t, AddPunch(&rec, attendance.Punch{ID: "a", Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn}))

	err := AddPunch(&rec, attendance.Punch{ID: "b", Timestamp: at(9, 0, 59), Direction: attendance.DirectionIn})
	assert.ErrorIs(t, err, attendance.ErrDuplicatePunch)

	err = AddPunch(&rec, attendance.Punch{ID: "c", Timestamp: at(8, 59, 1), Direction: attendance.DirectionIn})
	assert.ErrorIs(t, err, attendance.ErrDuplicatePunch)
	assert.Len(t, rec.Punches, 1)

	// exactly one minute apart is a separate punch
	require.NoError(t, AddPunch(&rec, attendance.Punch{ID: "d", Timestamp: at(9, 1, 0), Direction: attendance.DirectionOut}))
	assert.Len(t, rec.Punches, 2)
}

func TestAddPunch_KeepsOrder(t *testing.T) {
	rec := attendance.Record{Date: testDay}
	require.NoError(t, AddPunch(&rec, attendance.Punch{ID: "late", Timestamp: at(18, 0, 0), Direction: attendance.DirectionOut}))
	require.NoError(t, AddPunch(&rec, attendance.Punch{ID: "early", Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn}))

	assert.Equal(t, "early", rec.Punches[0].ID)
	assert.Equal(t, "late", rec.Punches[1].ID)
}

func TestWorkingTime(t *testing.T) {
	tests := []struct {
		name    string
		punches []attendance.Punch
		brk     int
		net     int
	}{
		{
			name: "full day with lunch",
			punches: []attendance.Punch{
				{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(13, 0, 0), Direction: attendance.DirectionOut},
				{Timestamp: at(14, 0, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(18, 0, 0), Direction: attendance.DirectionOut},
			},
			brk: 60,
			net: 480,
		},
		{
			name: "two breaks",
			punches: []attendance.Punch{
				{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(11, 0, 0), Direction: attendance.DirectionOut},
				{Timestamp: at(11, 15, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(13, 0, 0), Direction: attendance.DirectionOut},
				{Timestamp: at(13, 30, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(17, 0, 0), Direction: attendance.DirectionOut},
			},
			brk: 45,
			net: 480 - 45,
		},
		{
			name: "consecutive outs use the latest",
			punches: []attendance.Punch{
				{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(12, 0, 0), Direction: attendance.DirectionOut},
				{Timestamp: at(12, 30, 0), Direction: attendance.DirectionOut},
				{Timestamp: at(13, 0, 0), Direction: attendance.DirectionIn},
				{Timestamp: at(17, 0, 0), Direction: attendance.DirectionOut},
			},
			brk: 30,
			net: 480 - 30,
		},
		{
			name:    "only in",
			punches: []attendance.Punch{{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn}},
		},
		{
			name: "out before in",
			punches: []attendance.Punch{
				{Timestamp: at(8, 0, 0), Direction: attendance.DirectionOut},
				{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkingTime(tt.punches)
			assert.Equal(t, tt.brk, got.TotalBreakMinutes)
			assert.Equal(t, tt.net, got.NetWorkingMinutes)
		})
	}
}

func TestNextDirection(t *testing.T) {
	punches := []attendance.Punch{
		{Timestamp: at(9, 0, 0), Direction: attendance.DirectionIn},
		{Timestamp: at(13, 0, 0), Direction: attendance.DirectionOut},
	}

	assert.Equal(t, attendance.DirectionIn, attendance.NextDirection(nil, at(9, 0, 0)))
	assert.Equal(t, attendance.DirectionOut, attendance.NextDirection(punches, at(12, 0, 0)))
	assert.Equal(t, attendance.DirectionIn, attendance.NextDirection(punches, at(14, 0, 0)))
	assert.Equal(t, attendance.DirectionIn, attendance.NextDirection(punches, at(8, 0, 0)))
}
