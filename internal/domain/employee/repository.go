package employee

import (
	"context"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmployeeCode(ctx context.Context, employeeCode string) (Employee, error)
	GetByBiometricID(ctx context.Context, biometricID string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	ListAll(ctx context.Context) ([]Employee, error)
	UpdateLeaveBalance(ctx context.Context, id string, balance leave.Balance) error
	SetActive(ctx context.Context, id string, active bool) error
}
