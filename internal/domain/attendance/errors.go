package attendance

import "errors"

// Attendance domain errors
var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAttendanceLocked   = errors.New("attendance record is locked by a paid payroll")
	// ErrDuplicatePunch is never surfaced to callers of RecordPunch; the
	// punch is dropped and the current record returned.
	ErrDuplicatePunch   = errors.New("duplicate punch within 60 seconds")
	ErrInvalidDirection = errors.New("direction must be IN or OUT")
	ErrUnauthorized     = errors.New("unauthorized to access this attendance record")
)
