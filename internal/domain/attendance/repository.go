package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	GetByID(ctx context.Context, id string) (Record, error)
	// GetByEmployeeAndDate loads the record for (employee, local day). Inside a
	// transaction the row is locked for update.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, day time.Time) (Record, error)
	// Save upserts on (employee_id, date).
	Save(ctx context.Context, record Record) (Record, error)
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	// LockRange marks every record of the employee in [from, to) as locked.
	LockRange(ctx context.Context, employeeID string, from, to time.Time) error
}
