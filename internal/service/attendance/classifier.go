package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type InResult struct {
	Verdict      attendance.Verdict
	LateMinutes  int
	EarlyMinutes int
	IsHalfDay    bool
	UsedGrace    bool
}

// ClassifyIn maps the first IN punch of a working day to a timing verdict.
// day is the record's local midnight.
func ClassifyIn(firstIn, day time.Time, shiftStart string, rules attendance.TimingRules) (InResult, error) {
	start, err := timeutil.ShiftInstant(shiftStart, day)
	if err != nil {
		return InResult{}, err
	}
	halfDay, err := timeutil.ShiftInstant(rules.HalfDayBoundary, day)
	if err != nil {
		return InResult{}, err
	}
	graceEnd := start.Add(time.Duration(rules.GracePeriodMinutes) * time.Minute)

	if firstIn.Before(start) {
		return InResult{
			Verdict:      attendance.VerdictEarly,
			EarlyMinutes: timeutil.MinutesBetween(start, firstIn),
		}, nil
	}

	// Lateness is counted in whole minutes; seconds past the start are on time.
	late := timeutil.MinutesBetween(firstIn, start)
	switch {
	case late == 0:
		return InResult{Verdict: attendance.VerdictOnTime}, nil
	case !firstIn.After(graceEnd):
		return InResult{
			Verdict:     attendance.VerdictOnTimeGrace,
			LateMinutes: late,
			UsedGrace:   true,
		}, nil
	case firstIn.Before(halfDay):
		return InResult{
			Verdict:     attendance.VerdictLate,
			LateMinutes: late,
		}, nil
	default:
		return InResult{
			Verdict:     attendance.VerdictHalfDay,
			LateMinutes: late,
			IsHalfDay:   true,
		}, nil
	}
}

type OutResult struct {
	OvertimeMinutes   int
	EarlyLeaveMinutes int
	HasOvertime       bool
	IsEarlyLeave      bool
}

// ClassifyOut compares the last OUT punch of a working day with the shift end.
func ClassifyOut(lastOut, day time.Time, shiftEnd string) (OutResult, error) {
	end, err := timeutil.ShiftInstant(shiftEnd, day)
	if err != nil {
		return OutResult{}, err
	}

	switch {
	case lastOut.After(end):
		return OutResult{OvertimeMinutes: timeutil.MinutesBetween(lastOut, end), HasOvertime: true}, nil
	case lastOut.Before(end):
		return OutResult{EarlyLeaveMinutes: timeutil.MinutesBetween(end, lastOut), IsEarlyLeave: true}, nil
	default:
		return OutResult{}, nil
	}
}

// Recompute refreshes every derived field of rec from its punches. rec.Date
// must be local midnight in the organization's timezone.
func Recompute(rec *attendance.Record, shift attendance.Shift, rules attendance.TimingRules, offDay bool) error {
	SortPunches(rec.Punches)
	work := WorkingTime(rec.Punches)

	rec.FirstIn = work.FirstIn
	rec.LastOut = work.LastOut
	rec.TotalBreakMinutes = work.TotalBreakMinutes
	rec.NetWorkingMinutes = work.NetWorkingMinutes
	rec.Verdict = attendance.VerdictNone
	rec.LateMinutes, rec.EarlyMinutes = 0, 0
	rec.OvertimeMinutes, rec.EarlyLeaveMinutes = 0, 0
	rec.HasOvertime, rec.IsEarlyLeave = false, false
	rec.IsHalfDay, rec.UsedGracePeriod = false, false
	rec.IsOffDay = offDay
	rec.IsOffDayWork = false

	if len(rec.Punches) > 0 {
		rec.Status = attendance.StatusPresent
	}

	if offDay {
		if rec.FirstIn != nil {
			rec.Verdict = attendance.VerdictOffDayOvertime
			rec.IsOffDayWork = true
		}
		if rec.FirstIn != nil && rec.LastOut != nil {
			rec.OvertimeMinutes = rec.NetWorkingMinutes
			rec.HasOvertime = rec.OvertimeMinutes > 0
		}
		return nil
	}

	loc := rec.Date.Location()
	if rec.FirstIn != nil {
		in, err := ClassifyIn(rec.FirstIn.In(loc), rec.Date, shift.Start, rules)
		if err != nil {
			return err
		}
		rec.Verdict = in.Verdict
		rec.LateMinutes = in.LateMinutes
		rec.EarlyMinutes = in.EarlyMinutes
		rec.IsHalfDay = in.IsHalfDay
		rec.UsedGracePeriod = in.UsedGrace
	}
	if rec.LastOut != nil {
		out, err := ClassifyOut(rec.LastOut.In(loc), rec.Date, shift.End)
		if err != nil {
			return err
		}
		rec.OvertimeMinutes = out.OvertimeMinutes
		rec.EarlyLeaveMinutes = out.EarlyLeaveMinutes
		rec.HasOvertime = out.HasOvertime
		rec.IsEarlyLeave = out.IsEarlyLeave
	}
	return nil
}
