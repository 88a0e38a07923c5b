package payroll

import "errors"

var (
	ErrPayrollNotFound    = errors.New("payroll snapshot not found")
	ErrPayrollLocked      = errors.New("payroll already paid, cannot modify")
	ErrInvalidAdjustment  = errors.New("adjustment needs a non-zero amount and a description of at least 5 characters")
	ErrAdjustmentNotFound = errors.New("adjustment not found")
	ErrInvalidStatus      = errors.New("status must be pending, approved or paid")
	ErrInvalidPeriod      = errors.New("invalid payroll period")
)
