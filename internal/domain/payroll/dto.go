package payroll

import (
	"strings"
	"unicode/utf8"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type GeneratePayrollRequest struct {
	Month       string   `json:"month" validate:"required"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
	Regenerate  bool     `json:"regenerate"`
	Reason      string   `json:"reason,omitempty" validate:"max=500"`
	Actor       string   `json:"-"`
}

func (r *GeneratePayrollRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	var errs validator.ValidationErrors
	if _, err := timeutil.ParseMonth(r.Month); err != nil {
		errs.Add("month", "month must be in YYYY-MM format")
	}
	return errs.Err()
}

// GenerateOne is a single (employee, month) generation.
type GenerateOne struct {
	EmployeeID string
	Month      timeutil.Month
	Regenerate bool
	Reason     string
	Actor      string
}

type GenerateResult struct {
	Snapshot Snapshot `json:"snapshot"`
	Skipped  bool     `json:"skipped"`
}

type EmployeeError struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type BatchResult struct {
	Month     string          `json:"month"`
	Generated []string        `json:"generated"`
	Skipped   []string        `json:"skipped"`
	Failed    []EmployeeError `json:"failed"`
}

type AddAdjustmentRequest struct {
	PayrollID   string          `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Actor       string          `json:"-"`
}

func (r *AddAdjustmentRequest) Validate() error {
	if r.Amount.IsZero() || utf8.RuneCountInString(strings.TrimSpace(r.Description)) < 5 {
		return ErrInvalidAdjustment
	}
	return nil
}

type SetStatusRequest struct {
	PayrollID string        `json:"-"`
	Status    PayrollStatus `json:"status"`
	Notes     *string       `json:"notes,omitempty"`
	Actor     string        `json:"-"`
}

func (r *SetStatusRequest) Validate() error {
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

type PayrollFilter struct {
	Month      *timeutil.Month
	Status     *PayrollStatus
	EmployeeID *string
	Page       int
	Limit      int
}

type ListPayrollRequest struct {
	Month      string
	Status     string
	EmployeeID string
	Page       int
	Limit      int
}

func (r *ListPayrollRequest) ToFilter() (PayrollFilter, error) {
	var errs validator.ValidationErrors
	f := PayrollFilter{Page: r.Page, Limit: r.Limit}

	if r.Month != "" {
		m, err := timeutil.ParseMonth(r.Month)
		if err != nil {
			errs.Add("month", "month must be in YYYY-MM format")
		} else {
			f.Month = &m
		}
	}
	if r.Status != "" {
		s := PayrollStatus(r.Status)
		if !s.IsValid() {
			errs.Add("status", "status must be pending, approved or paid")
		} else {
			f.Status = &s
		}
	}
	if r.EmployeeID != "" {
		f.EmployeeID = &r.EmployeeID
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	return f, errs.Err()
}

type ListPayrollResponse struct {
	Data       []Snapshot `json:"data"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
}

// DeductionReportRow is one employee's line in the monthly late report.
type DeductionReportRow struct {
	EmployeeID       string          `json:"employee_id"`
	EmployeeCode     string          `json:"employee_code"`
	FullName         string          `json:"full_name"`
	LateCount        int             `json:"late_count"`
	ApprovedCount    int             `json:"approved_count"`
	ForgivenCount    int             `json:"forgiven_count"`
	DeductedCount    int             `json:"deducted_count"`
	HalfDayCount     int             `json:"half_day_count"`
	SalaryDeduction  decimal.Decimal `json:"salary_deduction"`
	LeaveUnits       decimal.Decimal `json:"leave_units"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type DeductionReport struct {
	Month          string               `json:"month"`
	Rows           []DeductionReportRow `json:"rows"`
	TotalSalary    decimal.Decimal      `json:"total_salary"`
	TotalLeave     decimal.Decimal      `json:"total_leave"`
	EmployeeErrors []EmployeeError      `json:"employee_errors,omitempty"`
}
