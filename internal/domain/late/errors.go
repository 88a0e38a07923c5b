package late

import "errors"

var (
	ErrLateNotFound             = errors.New("late event not found")
	ErrLateAlreadyFiled         = errors.New("late event already filed for this attendance")
	ErrNotLate                  = errors.New("attendance record has no lateness")
	ErrBelowThreshold           = errors.New("lateness is below the configured threshold")
	ErrHalfDayNotLate           = errors.New("half-day attendance is penalised as a half day, not as a late")
	ErrLateAlreadyProcessed     = errors.New("late event has already been approved or rejected")
	ErrAlreadyResolved          = errors.New("late event has already been deducted")
	ErrInsufficientLeaveBalance = errors.New("insufficient leave balance for a leave-only charge")
	ErrInvalidPolicy            = errors.New("invalid late policy")
	ErrPolicyNotFound           = errors.New("late policy not found")
	ErrInvalidStatus            = errors.New("status must be approved or rejected")
)
