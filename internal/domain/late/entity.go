package late

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type DeductionType string

const (
	DeductionNone   DeductionType = "none"
	DeductionSalary DeductionType = "salary"
	DeductionLeave  DeductionType = "leave"
)

type DeductionPreference string

const (
	PreferSalary DeductionPreference = "salary"
	PreferLeave  DeductionPreference = "leave"
)

// Event is one approvable late arrival. The attendance record owns the raw
// lateness; the event carries the approval state and, once resolved by a
// payroll run, the deduction applied.
type Event struct {
	ID               string     `json:"id"`
	EmployeeID       string     `json:"employee_id"`
	AttendanceID     string     `json:"attendance_id"`
	Date             time.Time  `json:"date"`
	LateMinutes      int        `json:"late_minutes"`
	Reason           *string    `json:"reason,omitempty"`
	Status           Status     `json:"status"`
	MonthlyLateCount int        `json:"monthly_late_count"`
	FiledBy          string     `json:"filed_by"`
	ReviewedBy       *string    `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`

	IsDeducted    bool          `json:"is_deducted"`
	DeductionType DeductionType `json:"deduction_type"`
	// DeductionAmount is the salary charged; LeaveUnits the leave charged.
	// A partially covered leave charge has both.
	DeductionAmount decimal.Decimal `json:"deduction_amount"`
	LeaveUnits      decimal.Decimal `json:"leave_units"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Policy is the organization-wide late and half-day deduction policy.
type Policy struct {
	DeductionPreference     DeductionPreference `json:"deduction_preference"`
	GraceDaysPerMonth       int                 `json:"grace_days_per_month"`
	LateThresholdMinutes    int                 `json:"late_threshold_minutes"`
	HalfDaysToFullDay       int                 `json:"half_days_to_full_day"`
	GracePeriodMinutes      int                 `json:"grace_period_minutes"`
	HalfDayBoundary         string              `json:"half_day_boundary"`
	LeaveBucket             leave.Bucket        `json:"leave_bucket"`
	AutoApproveUnderMinutes int                 `json:"auto_approve_under_minutes"`
	IsEnabled               bool                `json:"is_enabled"`
	UpdatedBy               *string             `json:"updated_by,omitempty"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

func DefaultPolicy() Policy {
	return Policy{
		DeductionPreference:  PreferLeave,
		GraceDaysPerMonth:    2,
		LateThresholdMinutes: 1,
		HalfDaysToFullDay:    2,
		GracePeriodMinutes:   30,
		HalfDayBoundary:      "12:00",
		LeaveBucket:          leave.BucketAnnual,
		IsEnabled:            true,
	}
}

func (p Policy) Validate() error {
	switch {
	case p.DeductionPreference != PreferSalary && p.DeductionPreference != PreferLeave:
		return fmt.Errorf("%w: deduction_preference must be salary or leave", ErrInvalidPolicy)
	case p.GraceDaysPerMonth < 0:
		return fmt.Errorf("%w: grace_days_per_month must be >= 0", ErrInvalidPolicy)
	case p.LateThresholdMinutes < 0:
		return fmt.Errorf("%w: late_threshold_minutes must be >= 0", ErrInvalidPolicy)
	case p.HalfDaysToFullDay < 1:
		return fmt.Errorf("%w: half_days_to_full_day must be >= 1", ErrInvalidPolicy)
	case p.GracePeriodMinutes < 0:
		return fmt.Errorf("%w: grace_period_minutes must be >= 0", ErrInvalidPolicy)
	case p.AutoApproveUnderMinutes < 0:
		return fmt.Errorf("%w: auto_approve_under_minutes must be >= 0", ErrInvalidPolicy)
	case !p.LeaveBucket.IsCanonical():
		return fmt.Errorf("%w: leave_bucket must be one of sick, annual, casual, unpaid", ErrInvalidPolicy)
	}
	if _, _, err := timeutil.ParseHHMM(p.HalfDayBoundary); err != nil {
		return fmt.Errorf("%w: half_day_boundary: %w", ErrInvalidPolicy, err)
	}
	return nil
}

func (p Policy) TimingRules() attendance.TimingRules {
	return attendance.TimingRules{
		GracePeriodMinutes: p.GracePeriodMinutes,
		HalfDayBoundary:    p.HalfDayBoundary,
	}
}

// HalfDay is one half-day occurrence, from an attendance record or an
// approved half-day leave application.
type HalfDay struct {
	Date   time.Time `json:"date"`
	Source string    `json:"source"`
	RefID  string    `json:"ref_id"`
}

const (
	HalfDaySourceAttendance = "attendance"
	HalfDaySourceLeave      = "leave"
)
