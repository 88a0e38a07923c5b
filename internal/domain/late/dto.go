package late

import (
	"strings"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type FileLateRequest struct {
	AttendanceID string  `json:"attendance_id" validate:"required"`
	Reason       *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	FiledBy      string  `json:"-"`
	// OwnerID, when set, restricts filing to that employee's own records.
	OwnerID string `json:"-"`
}

func (r *FileLateRequest) Validate() error {
	return validator.Struct(r)
}

type SetStatusRequest struct {
	ID         string `json:"-"`
	Status     Status `json:"status" validate:"required,oneof=approved rejected"`
	ReviewedBy string `json:"-"`
}

func (r *SetStatusRequest) Validate() error {
	return validator.Struct(r)
}

type ListLatesRequest struct {
	EmployeeID *string
	Status     *string
	Month      *string
}

func (r *ListLatesRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != nil && !validator.IsInSlice(*r.Status, []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}) {
		errs.Add("status", "status must be pending, approved or rejected")
	}

	return errs.Err()
}

type UpdatePolicyRequest struct {
	DeductionPreference     *DeductionPreference `json:"deduction_preference,omitempty"`
	GraceDaysPerMonth       *int                 `json:"grace_days_per_month,omitempty"`
	LateThresholdMinutes    *int                 `json:"late_threshold_minutes,omitempty"`
	HalfDaysToFullDay       *int                 `json:"half_days_to_full_day,omitempty"`
	GracePeriodMinutes      *int                 `json:"grace_period_minutes,omitempty"`
	HalfDayBoundary         *string              `json:"half_day_boundary,omitempty"`
	LeaveBucket             *leave.Bucket        `json:"leave_bucket,omitempty"`
	AutoApproveUnderMinutes *int                 `json:"auto_approve_under_minutes,omitempty"`
	IsEnabled               *bool                `json:"is_enabled,omitempty"`
	UpdatedBy               string               `json:"-"`
}

// Apply copies the set fields onto p.
func (r *UpdatePolicyRequest) Apply(p Policy) Policy {
	if r.DeductionPreference != nil {
		p.DeductionPreference = DeductionPreference(strings.ToLower(string(*r.DeductionPreference)))
	}
	if r.GraceDaysPerMonth != nil {
		p.GraceDaysPerMonth = *r.GraceDaysPerMonth
	}
	if r.LateThresholdMinutes != nil {
		p.LateThresholdMinutes = *r.LateThresholdMinutes
	}
	if r.HalfDaysToFullDay != nil {
		p.HalfDaysToFullDay = *r.HalfDaysToFullDay
	}
	if r.GracePeriodMinutes != nil {
		p.GracePeriodMinutes = *r.GracePeriodMinutes
	}
	if r.HalfDayBoundary != nil {
		p.HalfDayBoundary = *r.HalfDayBoundary
	}
	if r.LeaveBucket != nil {
		p.LeaveBucket = *r.LeaveBucket
	}
	if r.AutoApproveUnderMinutes != nil {
		p.AutoApproveUnderMinutes = *r.AutoApproveUnderMinutes
	}
	if r.IsEnabled != nil {
		p.IsEnabled = *r.IsEnabled
	}
	if r.UpdatedBy != "" {
		by := r.UpdatedBy
		p.UpdatedBy = &by
	}
	return p
}

type ResolveMonthRequest struct {
	Employee       employee.Employee
	Month          timeutil.Month
	OpeningBalance decimal.Decimal
	Policy         Policy
	// LeaveOnly makes a shortfall of leave fail with
	// ErrInsufficientLeaveBalance instead of falling back to salary.
	LeaveOnly bool
}
