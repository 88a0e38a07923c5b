package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
)

type EmployeeServiceImpl struct {
	tx           database.Transactor
	employeeRepo employee.EmployeeRepository
	userRepo     user.UserRepository
}

func NewEmployeeService(
	tx database.Transactor,
	employeeRepo employee.EmployeeRepository,
	userRepo user.UserRepository,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		tx:           tx,
		employeeRepo: employeeRepo,
		userRepo:     userRepo,
	}
}

func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	return s.employeeRepo.GetByID(ctx, id)
}

// FindByDeviceUser implements employee.EmployeeService.
func (s *EmployeeServiceImpl) FindByDeviceUser(ctx context.Context, deviceUserID string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByBiometricID(ctx, deviceUserID)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return employee.Employee{}, fmt.Errorf("failed to get employee by biometric id: %w", err)
	}
	return s.employeeRepo.GetByEmployeeCode(ctx, deviceUserID)
}

// DeactivateEmployee turns off the employee and the linked user account
// together.
func (s *EmployeeServiceImpl) DeactivateEmployee(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !emp.IsActive {
			return employee.ErrEmployeeAlreadyInactive
		}

		if err := s.employeeRepo.SetActive(ctx, emp.ID, false); err != nil {
			return fmt.Errorf("failed to deactivate employee: %w", err)
		}
		if emp.UserID != nil {
			if err := s.userRepo.SetActive(ctx, *emp.UserID, false); err != nil {
				return fmt.Errorf("failed to deactivate user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Employee deactivated", "employee_id", id)
	return nil
}

// MigrateLeaveBuckets rewrites every employee's leave balance into the
// canonical bucket names. Running it twice changes nothing.
func (s *EmployeeServiceImpl) MigrateLeaveBuckets(ctx context.Context) (employee.MigrationResult, error) {
	var result employee.MigrationResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		employees, err := s.employeeRepo.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list employees: %w", err)
		}

		for _, emp := range employees {
			result.Scanned++
			migrated, changed := emp.LeaveBalance.Migrate()
			if !changed {
				continue
			}
			if err := s.employeeRepo.UpdateLeaveBalance(ctx, emp.ID, migrated); err != nil {
				return fmt.Errorf("failed to update leave balance for %s: %w", emp.ID, err)
			}
			result.Migrated++
		}
		return nil
	})
	if err != nil {
		return employee.MigrationResult{}, err
	}

	slog.Info("Leave buckets migrated", "scanned", result.Scanned, "migrated", result.Migrated)
	return result, nil
}
