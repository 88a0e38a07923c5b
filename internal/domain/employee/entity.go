package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/shopspring/decimal"
)

const (
	DefaultShiftStart = "09:00"
	DefaultShiftEnd   = "18:00"
)

type Employee struct {
	ID           string          `json:"id"`
	UserID       *string         `json:"user_id,omitempty"`
	EmployeeCode string          `json:"employee_code"`
	BiometricID  *string         `json:"biometric_id,omitempty"`
	FullName     string          `json:"full_name"`
	Email        string          `json:"email"`
	Designation  *string         `json:"designation,omitempty"`
	ShiftStart   string          `json:"shift_start"`
	ShiftEnd     string          `json:"shift_end"`
	BasicSalary  decimal.Decimal `json:"basic_salary"`
	Allowances   Allowances      `json:"allowances"`
	LeaveBalance leave.Balance   `json:"leave_balance"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Allowances are named monthly pay components (hra, transport, medical, ...).
type Allowances map[string]decimal.Decimal

func (a Allowances) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a {
		total = total.Add(v)
	}
	return total
}

func (a Allowances) Clone() Allowances {
	out := make(Allowances, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// PerDaySalary is the pro-rated daily rate used for every salary charge.
func (e Employee) PerDaySalary() decimal.Decimal {
	return e.BasicSalary.DivRound(decimal.NewFromInt(30), 2)
}

func (e Employee) GrossSalary() decimal.Decimal {
	return e.BasicSalary.Add(e.Allowances.Total())
}
