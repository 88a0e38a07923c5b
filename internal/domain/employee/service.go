package employee

import "context"

type EmployeeService interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	// FindByDeviceUser resolves a device user id against biometric ids first,
	// then employee codes.
	FindByDeviceUser(ctx context.Context, deviceUserID string) (Employee, error)
	DeactivateEmployee(ctx context.Context, id string) error
	MigrateLeaveBuckets(ctx context.Context) (MigrationResult, error)
}

type MigrationResult struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
}
