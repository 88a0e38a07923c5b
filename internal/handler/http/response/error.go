package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrManagerAccessRequired), errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeAlreadyInactive):
		Conflict(w, "Employee is already inactive")
	case errors.Is(err, employee.ErrEmployeeInactive):
		BadRequest(w, "Employee is inactive", nil)

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAttendanceLocked):
		Locked(w, err.Error())
	case errors.Is(err, attendance.ErrInvalidDirection):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, timeutil.ErrInvalidTimeFormat), errors.Is(err, timeutil.ErrInvalidMonthFormat):
		BadRequest(w, err.Error(), nil)

	// Late domain errors
	case errors.Is(err, late.ErrLateNotFound):
		NotFound(w, "Late event not found")
	case errors.Is(err, late.ErrPolicyNotFound):
		NotFound(w, "Late policy not found")
	case errors.Is(err, late.ErrLateAlreadyFiled),
		errors.Is(err, late.ErrLateAlreadyProcessed),
		errors.Is(err, late.ErrAlreadyResolved):
		Conflict(w, err.Error())
	case errors.Is(err, late.ErrNotLate),
		errors.Is(err, late.ErrBelowThreshold),
		errors.Is(err, late.ErrHalfDayNotLate),
		errors.Is(err, late.ErrInsufficientLeaveBalance),
		errors.Is(err, late.ErrInvalidPolicy),
		errors.Is(err, late.ErrInvalidStatus):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrUnknownBucket), errors.Is(err, leave.ErrInvalidUnits):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollNotFound):
		NotFound(w, "Payroll snapshot not found")
	case errors.Is(err, payroll.ErrAdjustmentNotFound):
		NotFound(w, "Adjustment not found")
	case errors.Is(err, payroll.ErrPayrollLocked):
		Locked(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidAdjustment),
		errors.Is(err, payroll.ErrInvalidStatus),
		errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)

	// Holiday domain errors
	case errors.Is(err, holiday.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, holiday.ErrHolidayDateExists):
		Conflict(w, err.Error())
	case errors.Is(err, holiday.ErrInvalidHolidayType):
		BadRequest(w, err.Error(), nil)

	// Device sync errors
	case errors.Is(err, device.ErrSyncInProgress):
		Conflict(w, err.Error())
	case errors.Is(err, device.ErrEmptyBatch):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
