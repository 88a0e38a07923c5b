package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	id, user_id, employee_code, biometric_id, full_name, email, designation,
	shift_start, shift_end, basic_salary, allowances, leave_balance, is_active,
	created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.UserID, &e.EmployeeCode, &e.BiometricID, &e.FullName, &e.Email, &e.Designation,
		&e.ShiftStart, &e.ShiftEnd, &e.BasicSalary, &e.Allowances, &e.LeaveBalance, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if e.Allowances == nil {
		e.Allowances = employee.Allowances{}
	}
	return e, err
}

func (r *employeeRepository) getOne(ctx context.Context, where string, arg any) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := forUpdate(ctx, "SELECT"+employeeColumns+" FROM employees WHERE "+where)
	e, err := scanEmployee(q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// GetByID implements employee.EmployeeRepository. Inside a transaction the
// row is locked so balance updates serialize.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *employeeRepository) GetByEmployeeCode(ctx context.Context, employeeCode string) (employee.Employee, error) {
	return r.getOne(ctx, "employee_code = $1", employeeCode)
}

func (r *employeeRepository) GetByBiometricID(ctx context.Context, biometricID string) (employee.Employee, error) {
	return r.getOne(ctx, "biometric_id = $1", biometricID)
}

func (r *employeeRepository) list(ctx context.Context, query string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return r.list(ctx, "SELECT"+employeeColumns+" FROM employees WHERE is_active = true ORDER BY employee_code")
}

func (r *employeeRepository) ListAll(ctx context.Context) ([]employee.Employee, error) {
	return r.list(ctx, "SELECT"+employeeColumns+" FROM employees ORDER BY employee_code")
}

func (r *employeeRepository) UpdateLeaveBalance(ctx context.Context, id string, balance leave.Balance) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE employees SET leave_balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update leave balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE employees SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
