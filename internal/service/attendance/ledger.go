package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

// DuplicateWindow is how close two punches must be to count as one.
const DuplicateWindow = 60 * time.Second

// AddPunch appends p to the record's punches and re-sorts them. A punch
// strictly closer than DuplicateWindow to an existing one is rejected with
// attendance.ErrDuplicatePunch and the record is left untouched.
func AddPunch(rec *attendance.Record, p attendance.Punch) error {
	for _, existing := range rec.Punches {
		delta := p.Timestamp.Sub(existing.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta < DuplicateWindow {
			return attendance.ErrDuplicatePunch
		}
	}
	rec.Punches = append(rec.Punches, p)
	SortPunches(rec.Punches)
	return nil
}

func SortPunches(punches []attendance.Punch) {
	sort.SliceStable(punches, func(i, j int) bool {
		return punches[i].Timestamp.Before(punches[j].Timestamp)
	})
}

// FirstInLastOut returns the first IN and the last OUT of sorted punches.
func FirstInLastOut(punches []attendance.Punch) (firstIn, lastOut *time.Time) {
	for i := range punches {
		if punches[i].Direction == attendance.DirectionIn {
			ts := punches[i].Timestamp
			firstIn = &ts
			break
		}
	}
	for i := len(punches) - 1; i >= 0; i-- {
		if punches[i].Direction == attendance.DirectionOut {
			ts := punches[i].Timestamp
			lastOut = &ts
			break
		}
	}
	return firstIn, lastOut
}

type WorkSummary struct {
	FirstIn           *time.Time
	LastOut           *time.Time
	TotalBreakMinutes int
	NetWorkingMinutes int
}

// WorkingTime derives break and net working minutes from sorted punches.
// Every OUT opens a break that the next IN closes; only positive gaps
// inside the first-IN/last-OUT span count. Without an IN followed by an OUT
// both figures are zero.
func WorkingTime(punches []attendance.Punch) WorkSummary {
	firstIn, lastOut := FirstInLastOut(punches)
	summary := WorkSummary{FirstIn: firstIn, LastOut: lastOut}
	if firstIn == nil || lastOut == nil || !lastOut.After(*firstIn) {
		return summary
	}

	var breakStart *time.Time
	for i := range punches {
		p := punches[i]
		if p.Timestamp.Before(*firstIn) || p.Timestamp.After(*lastOut) {
			continue
		}
		switch p.Direction {
		case attendance.DirectionOut:
			ts := p.Timestamp
			breakStart = &ts
		case attendance.DirectionIn:
			if breakStart != nil {
				if gap := timeutil.MinutesBetween(p.Timestamp, *breakStart); gap > 0 {
					summary.TotalBreakMinutes += gap
				}
				breakStart = nil
			}
		}
	}

	summary.NetWorkingMinutes = timeutil.MinutesBetween(*lastOut, *firstIn) - summary.TotalBreakMinutes
	if summary.NetWorkingMinutes < 0 {
		summary.NetWorkingMinutes = 0
	}
	return summary
}
