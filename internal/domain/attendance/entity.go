package attendance

import (
	"time"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

const SourceManual = "manual"

type Punch struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Source    string    `json:"source"`
	Location  *string   `json:"location,omitempty"`
}

type Verdict string

const (
	VerdictNone           Verdict = ""
	VerdictEarly          Verdict = "early"
	VerdictOnTime         Verdict = "on_time"
	VerdictOnTimeGrace    Verdict = "on_time_grace"
	VerdictLate           Verdict = "late"
	VerdictHalfDay        Verdict = "half_day"
	VerdictOffDayOvertime Verdict = "off_day_overtime"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
	StatusHoliday Status = "holiday"
	StatusWeekend Status = "weekend"
)

// AuditEntry records an administrative overwrite of a record's punches.
type AuditEntry struct {
	Action          string    `json:"action"`
	Actor           string    `json:"actor"`
	Reason          string    `json:"reason"`
	At              time.Time `json:"at"`
	PreviousPunches []Punch   `json:"previous_punches"`
	PreviousVerdict Verdict   `json:"previous_verdict"`
}

// Record is one employee's attendance for one local calendar day. Every
// derived field is recomputed from Punches, the shift and the off-day flag.
type Record struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       time.Time `json:"date"`
	Status     Status    `json:"status"`
	Punches    []Punch   `json:"punches"`

	FirstIn           *time.Time `json:"first_in,omitempty"`
	LastOut           *time.Time `json:"last_out,omitempty"`
	Verdict           Verdict    `json:"verdict"`
	LateMinutes       int        `json:"late_minutes"`
	EarlyMinutes      int        `json:"early_minutes"`
	OvertimeMinutes   int        `json:"overtime_minutes"`
	EarlyLeaveMinutes int        `json:"early_leave_minutes"`
	TotalBreakMinutes int        `json:"total_break_minutes"`
	NetWorkingMinutes int        `json:"net_working_minutes"`
	HasOvertime       bool       `json:"has_overtime"`
	IsEarlyLeave      bool       `json:"is_early_leave"`
	IsHalfDay         bool       `json:"is_half_day"`
	IsOffDay          bool       `json:"is_off_day"`
	IsOffDayWork      bool       `json:"is_off_day_work"`
	UsedGracePeriod   bool       `json:"used_grace_period"`

	IsEdited  bool         `json:"is_edited"`
	AuditLog  []AuditEntry `json:"audit_log,omitempty"`
	IsLocked  bool         `json:"is_locked"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Shift is an employee's daily schedule as local "HH:mm" strings.
type Shift struct {
	Start string
	End   string
}

// TimingRules are the organization-wide knobs of the timing classifier.
type TimingRules struct {
	GracePeriodMinutes int
	HalfDayBoundary    string
}

// NextDirection alternates from the latest punch strictly before at.
// No earlier punch means IN.
func NextDirection(punches []Punch, at time.Time) Direction {
	var prev *Punch
	for i := range punches {
		if punches[i].Timestamp.Before(at) {
			if prev == nil || punches[i].Timestamp.After(prev.Timestamp) {
				prev = &punches[i]
			}
		}
	}
	if prev == nil {
		return DirectionIn
	}
	return prev.Direction.Opposite()
}
