package attendance

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type RecordPunchRequest struct {
	EmployeeID string    `json:"employee_id"`
	Timestamp  time.Time `json:"timestamp"`
	// Direction may be empty; it is then inferred from the previous punch
	// of the same day.
	Direction Direction `json:"direction,omitempty"`
	Source    string    `json:"source,omitempty"`
	Location  *string   `json:"location,omitempty"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.Timestamp.IsZero() {
		errs.Add("timestamp", "timestamp is required")
	}
	if r.Direction != "" && !r.Direction.IsValid() {
		errs.Add("direction", "direction must be IN or OUT")
	}

	return errs.Err()
}

type PunchResult struct {
	Record    Record `json:"record"`
	Duplicate bool   `json:"duplicate"`
}

type PunchInput struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Location  *string   `json:"location,omitempty"`
}

type CorrectPunchesRequest struct {
	RecordID string       `json:"-"`
	Punches  []PunchInput `json:"punches"`
	Reason   string       `json:"reason"`
	Actor    string       `json:"-"`
}

func (r *CorrectPunchesRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RecordID) {
		errs.Add("id", "record id is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Reason)) < 5 {
		errs.Add("reason", "reason must be at least 5 characters")
	}
	for _, p := range r.Punches {
		if p.Timestamp.IsZero() {
			errs.Add("punches", "every punch needs a timestamp")
			break
		}
		if !p.Direction.IsValid() {
			errs.Add("punches", "every punch needs direction IN or OUT")
			break
		}
	}

	return errs.Err()
}

type GetDayRequest struct {
	EmployeeID string
	Date       string
}

func (r *GetDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}

	return errs.Err()
}

type MarkAbsentResult struct {
	Date    string `json:"date"`
	Absent  int    `json:"absent"`
	OffDay  int    `json:"off_day"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

type MonthRequest struct {
	EmployeeID string
	Month      timeutil.Month
}

// DayEvent is the live-feed view of a day after a punch or correction.
type DayEvent struct {
	RecordID    string     `json:"record_id"`
	EmployeeID  string     `json:"employee_id"`
	Date        string     `json:"date"`
	Punches     int        `json:"punches"`
	FirstIn     *time.Time `json:"first_in,omitempty"`
	LastOut     *time.Time `json:"last_out,omitempty"`
	Verdict     Verdict    `json:"verdict"`
	LateMinutes int        `json:"late_minutes"`
	IsEdited    bool       `json:"is_edited"`
}

func NewDayEvent(rec Record) DayEvent {
	return DayEvent{
		RecordID:    rec.ID,
		EmployeeID:  rec.EmployeeID,
		Date:        rec.Date.Format(timeutil.DateLayout),
		Punches:     len(rec.Punches),
		FirstIn:     rec.FirstIn,
		LastOut:     rec.LastOut,
		Verdict:     rec.Verdict,
		LateMinutes: rec.LateMinutes,
		IsEdited:    rec.IsEdited,
	}
}
