package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollColumns = `
	id, employee_id, month, basic_salary, allowances, gross_salary,
	deductions, total_deductions, overtime, adjustments, total_adjustments, net_salary,
	attendance_summary, leave_bucket, leave_units_debited,
	status, paid_at, version, is_regenerated, regeneration_history, notes, generated_by,
	created_at, updated_at`

func scanSnapshot(row pgx.Row) (payroll.Snapshot, error) {
	var s payroll.Snapshot
	var month string
	err := row.Scan(
		&s.ID, &s.EmployeeID, &month, &s.BasicSalary, &s.Allowances, &s.GrossSalary,
		&s.Deductions, &s.TotalDeductions, &s.Overtime, &s.Adjustments, &s.TotalAdjustments, &s.NetSalary,
		&s.Attendance, &s.LeaveBucket, &s.LeaveUnitsDebited,
		&s.Status, &s.PaidAt, &s.Version, &s.IsRegenerated, &s.RegenerationHistory, &s.Notes, &s.GeneratedBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return payroll.Snapshot{}, err
	}
	if s.Month, err = timeutil.ParseMonth(month); err != nil {
		return payroll.Snapshot{}, fmt.Errorf("invalid stored month %q: %w", month, err)
	}
	return s, nil
}

func (r *payrollRepository) getOne(ctx context.Context, where string, args ...any) (payroll.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := forUpdate(ctx, "SELECT"+payrollColumns+" FROM payroll_snapshots WHERE "+where)
	s, err := scanSnapshot(q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return payroll.Snapshot{}, payroll.ErrPayrollNotFound
		}
		return payroll.Snapshot{}, fmt.Errorf("failed to get payroll: %w", err)
	}
	return s, nil
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Snapshot, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmployeeMonth implements payroll.PayrollRepository.
func (r *payrollRepository) GetByEmployeeMonth(ctx context.Context, employeeID string, month timeutil.Month) (payroll.Snapshot, error) {
	return r.getOne(ctx, "employee_id = $1 AND month = $2", employeeID, month.String())
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Snapshot, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.Month != nil {
		whereClause += fmt.Sprintf(" AND month = $%d", argIndex)
		args = append(args, filter.Month.String())
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND employee_id = $%d", argIndex)
		args = append(args, *filter.EmployeeID)
		argIndex++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_snapshots "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payrolls: %w", err)
	}

	query := "SELECT" + payrollColumns + " FROM payroll_snapshots " + whereClause +
		fmt.Sprintf(" ORDER BY month DESC, employee_id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	snaps := []payroll.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, total, rows.Err()
}

// Save implements payroll.PayrollRepository. It upserts on (employee_id, month).
func (r *payrollRepository) Save(ctx context.Context, s payroll.Snapshot) (payroll.Snapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_snapshots (
			employee_id, month, basic_salary, allowances, gross_salary,
			deductions, total_deductions, overtime, adjustments, total_adjustments, net_salary,
			attendance_summary, leave_bucket, leave_units_debited,
			status, paid_at, version, is_regenerated, regeneration_history, notes, generated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (employee_id, month) DO UPDATE SET
			basic_salary = EXCLUDED.basic_salary,
			allowances = EXCLUDED.allowances,
			gross_salary = EXCLUDED.gross_salary,
			deductions = EXCLUDED.deductions,
			total_deductions = EXCLUDED.total_deductions,
			overtime = EXCLUDED.overtime,
			adjustments = EXCLUDED.adjustments,
			total_adjustments = EXCLUDED.total_adjustments,
			net_salary = EXCLUDED.net_salary,
			attendance_summary = EXCLUDED.attendance_summary,
			leave_bucket = EXCLUDED.leave_bucket,
			leave_units_debited = EXCLUDED.leave_units_debited,
			status = EXCLUDED.status,
			paid_at = EXCLUDED.paid_at,
			version = EXCLUDED.version,
			is_regenerated = EXCLUDED.is_regenerated,
			regeneration_history = EXCLUDED.regeneration_history,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	adjustments := s.Adjustments
	if adjustments == nil {
		adjustments = []payroll.Adjustment{}
	}
	history := s.RegenerationHistory
	if history == nil {
		history = []payroll.Regeneration{}
	}

	err := q.QueryRow(ctx, query,
		s.EmployeeID, s.Month.String(), s.BasicSalary, s.Allowances, s.GrossSalary,
		s.Deductions, s.TotalDeductions, s.Overtime, adjustments, s.TotalAdjustments, s.NetSalary,
		s.Attendance, s.LeaveBucket, s.LeaveUnitsDebited,
		s.Status, s.PaidAt, s.Version, s.IsRegenerated, history, s.Notes, s.GeneratedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return payroll.Snapshot{}, fmt.Errorf("failed to save payroll: %w", err)
	}
	return s, nil
}
