package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type PayrollRepository interface {
	GetByID(ctx context.Context, id string) (Snapshot, error)
	// GetByEmployeeMonth locks the row for update inside a transaction.
	GetByEmployeeMonth(ctx context.Context, employeeID string, month timeutil.Month) (Snapshot, error)
	List(ctx context.Context, filter PayrollFilter) ([]Snapshot, int64, error)
	// Save upserts on (employee_id, year, month).
	Save(ctx context.Context, snapshot Snapshot) (Snapshot, error)
}
