package payroll

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusPending  PayrollStatus = "pending"
	PayrollStatusApproved PayrollStatus = "approved"
	PayrollStatusPaid     PayrollStatus = "paid"
)

func (s PayrollStatus) IsValid() bool {
	return s == PayrollStatusPending || s == PayrollStatusApproved || s == PayrollStatusPaid
}

type Deductions struct {
	Absent  decimal.Decimal `json:"absent"`
	HalfDay decimal.Decimal `json:"half_day"`
	Late    decimal.Decimal `json:"late"`
}

func (d Deductions) Total() decimal.Decimal {
	return d.Absent.Add(d.HalfDay).Add(d.Late)
}

// Overtime is informational only and never part of net salary.
type Overtime struct {
	Minutes int             `json:"minutes"`
	Hours   decimal.Decimal `json:"hours"`
	Amount  decimal.Decimal `json:"amount"`
}

type Adjustment struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

type AttendanceSummary struct {
	Present         int `json:"present"`
	Absent          int `json:"absent"`
	Leave           int `json:"leave"`
	HalfDay         int `json:"half_day"`
	Late            int `json:"late"`
	LateApproved    int `json:"late_approved"`
	OffDayWorked    int `json:"off_day_worked"`
	OvertimeMinutes int `json:"overtime_minutes"`
}

type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type Regeneration struct {
	RegeneratedAt     time.Time       `json:"regenerated_at"`
	RegeneratedBy     string          `json:"regenerated_by"`
	Reason            string          `json:"reason"`
	PreviousNetSalary decimal.Decimal `json:"previous_net_salary"`
	NewNetSalary      decimal.Decimal `json:"new_net_salary"`
	Changes           []FieldChange   `json:"changes"`
}

// Snapshot is the versioned monthly pay record of one employee.
type Snapshot struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employee_id"`
	Month      timeutil.Month `json:"month"`

	BasicSalary     decimal.Decimal            `json:"basic_salary"`
	Allowances      map[string]decimal.Decimal `json:"allowances"`
	GrossSalary     decimal.Decimal            `json:"gross_salary"`
	Deductions      Deductions                 `json:"deductions"`
	TotalDeductions decimal.Decimal            `json:"total_deductions"`
	Overtime        Overtime                   `json:"overtime"`

	Adjustments      []Adjustment    `json:"adjustments"`
	TotalAdjustments decimal.Decimal `json:"total_adjustments"`
	NetSalary        decimal.Decimal `json:"net_salary"`

	Attendance        AttendanceSummary `json:"attendance"`
	LeaveBucket       leave.Bucket      `json:"leave_bucket"`
	LeaveUnitsDebited decimal.Decimal   `json:"leave_units_debited"`

	Status              PayrollStatus  `json:"status"`
	PaidAt              *time.Time     `json:"paid_at,omitempty"`
	Version             int            `json:"version"`
	IsRegenerated       bool           `json:"is_regenerated"`
	RegenerationHistory []Regeneration `json:"regeneration_history"`
	Notes               *string        `json:"notes,omitempty"`
	GeneratedBy         string         `json:"generated_by"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Recalculate refreshes the totals and net salary from their parts.
func (s *Snapshot) Recalculate() {
	total := decimal.Zero
	for _, a := range s.Adjustments {
		total = total.Add(a.Amount)
	}
	s.TotalAdjustments = total
	s.TotalDeductions = s.Deductions.Total()
	s.NetSalary = s.GrossSalary.Add(s.TotalAdjustments).Sub(s.TotalDeductions)
}

func (s *Snapshot) IsLocked() bool {
	return s.Status == PayrollStatusPaid
}

// Diff lists the computed fields that differ between prev and next.
func Diff(prev, next Snapshot) []FieldChange {
	changes := []FieldChange{}
	dec := func(field string, a, b decimal.Decimal) {
		if !a.Equal(b) {
			changes = append(changes, FieldChange{Field: field, Old: a.StringFixed(2), New: b.StringFixed(2)})
		}
	}
	num := func(field string, a, b int) {
		if a != b {
			changes = append(changes, FieldChange{Field: field, Old: itoa(a), New: itoa(b)})
		}
	}

	dec("basic_salary", prev.BasicSalary, next.BasicSalary)

	keys := map[string]struct{}{}
	for k := range prev.Allowances {
		keys[k] = struct{}{}
	}
	for k := range next.Allowances {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		dec("allowances."+k, valueOrZero(prev.Allowances, k), valueOrZero(next.Allowances, k))
	}

	dec("gross_salary", prev.GrossSalary, next.GrossSalary)
	dec("deductions.absent", prev.Deductions.Absent, next.Deductions.Absent)
	dec("deductions.half_day", prev.Deductions.HalfDay, next.Deductions.HalfDay)
	dec("deductions.late", prev.Deductions.Late, next.Deductions.Late)
	dec("total_deductions", prev.TotalDeductions, next.TotalDeductions)
	dec("overtime.amount", prev.Overtime.Amount, next.Overtime.Amount)
	dec("leave_units_debited", prev.LeaveUnitsDebited, next.LeaveUnitsDebited)
	dec("net_salary", prev.NetSalary, next.NetSalary)

	num("attendance.present", prev.Attendance.Present, next.Attendance.Present)
	num("attendance.absent", prev.Attendance.Absent, next.Attendance.Absent)
	num("attendance.leave", prev.Attendance.Leave, next.Attendance.Leave)
	num("attendance.half_day", prev.Attendance.HalfDay, next.Attendance.HalfDay)
	num("attendance.late", prev.Attendance.Late, next.Attendance.Late)
	num("attendance.late_approved", prev.Attendance.LateApproved, next.Attendance.LateApproved)
	num("overtime.minutes", prev.Overtime.Minutes, next.Overtime.Minutes)

	return changes
}

func valueOrZero(m map[string]decimal.Decimal, k string) decimal.Decimal {
	if v, ok := m[k]; ok {
		return v
	}
	return decimal.Zero
}

func itoa(n int) string {
	return decimal.NewFromInt(int64(n)).String()
}
