package leave

import (
	"context"
	"time"
)

// ApplicationRepository - read access to leave_applications table
type ApplicationRepository interface {
	// ListApprovedHalfDays returns approved half-day applications whose
	// start date falls in [from, to), ordered by start date.
	ListApprovedHalfDays(ctx context.Context, employeeID string, from, to time.Time) ([]Application, error)
}
