package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type lateRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewLateRepository(db *database.DB, loc *time.Location) late.LateRepository {
	return &lateRepository{db: db, loc: loc}
}

const lateColumns = `
	id, employee_id, attendance_id, date, late_minutes, reason, status, monthly_late_count,
	filed_by, reviewed_by, reviewed_at, is_deducted, deduction_type, deduction_amount, leave_units,
	created_at, updated_at`

func (r *lateRepository) scan(row pgx.Row) (late.Event, error) {
	var e late.Event
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.AttendanceID, &e.Date, &e.LateMinutes, &e.Reason, &e.Status, &e.MonthlyLateCount,
		&e.FiledBy, &e.ReviewedBy, &e.ReviewedAt, &e.IsDeducted, &e.DeductionType, &e.DeductionAmount, &e.LeaveUnits,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return late.Event{}, err
	}
	e.Date = localDate(e.Date, r.loc)
	return e, nil
}

func (r *lateRepository) query(ctx context.Context, query string, args ...any) ([]late.Event, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list late events: %w", err)
	}
	defer rows.Close()

	events := []late.Event{}
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan late event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Create implements late.LateRepository.
func (r *lateRepository) Create(ctx context.Context, e late.Event) (late.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO late_events (
			employee_id, attendance_id, date, late_minutes, reason, status, monthly_late_count,
			filed_by, reviewed_by, reviewed_at, is_deducted, deduction_type, deduction_amount, leave_units
		) VALUES (
			$1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		e.EmployeeID, e.AttendanceID, dateParam(e.Date), e.LateMinutes, e.Reason, e.Status, e.MonthlyLateCount,
		e.FiledBy, e.ReviewedBy, e.ReviewedAt, e.IsDeducted, e.DeductionType, e.DeductionAmount, e.LeaveUnits,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return late.Event{}, late.ErrLateAlreadyFiled
		}
		return late.Event{}, fmt.Errorf("failed to create late event: %w", err)
	}
	return e, nil
}

// GetByID implements late.LateRepository.
func (r *lateRepository) GetByID(ctx context.Context, id string) (late.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := forUpdate(ctx, "SELECT"+lateColumns+" FROM late_events WHERE id = $1")
	e, err := r.scan(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return late.Event{}, late.ErrLateNotFound
		}
		return late.Event{}, fmt.Errorf("failed to get late event: %w", err)
	}
	return e, nil
}

// List implements late.LateRepository.
func (r *lateRepository) List(ctx context.Context, filter late.Filter) ([]late.Event, error) {
	whereClause := "WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND employee_id = $%d", argIndex)
		args = append(args, *filter.EmployeeID)
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.From != nil {
		whereClause += fmt.Sprintf(" AND date >= $%d::date", argIndex)
		args = append(args, dateParam(filter.From.In(r.loc)))
		argIndex++
	}
	if filter.To != nil {
		whereClause += fmt.Sprintf(" AND date < $%d::date", argIndex)
		args = append(args, dateParam(filter.To.In(r.loc)))
	}

	return r.query(ctx, "SELECT"+lateColumns+" FROM late_events "+whereClause+" ORDER BY date DESC, created_at DESC", args...)
}

// ListByEmployeeAndRange implements late.LateRepository.
func (r *lateRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]late.Event, error) {
	query := "SELECT" + lateColumns + `
		FROM late_events
		WHERE employee_id = $1 AND date >= $2::date AND date < $3::date AND status <> 'rejected'
		ORDER BY date, created_at, id`
	query = forUpdate(ctx, query)

	return r.query(ctx, query, employeeID, dateParam(from.In(r.loc)), dateParam(to.In(r.loc)))
}

// CountByEmployeeAndRange implements late.LateRepository.
func (r *lateRepository) CountByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM late_events
		WHERE employee_id = $1 AND date >= $2::date AND date < $3::date
	`, employeeID, dateParam(from.In(r.loc)), dateParam(to.In(r.loc))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count late events: %w", err)
	}
	return count, nil
}

// Update implements late.LateRepository.
func (r *lateRepository) Update(ctx context.Context, e late.Event) (late.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE late_events SET
			reason = $2, status = $3, reviewed_by = $4, reviewed_at = $5,
			is_deducted = $6, deduction_type = $7, deduction_amount = $8, leave_units = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		e.ID, e.Reason, e.Status, e.ReviewedBy, e.ReviewedAt,
		e.IsDeducted, e.DeductionType, e.DeductionAmount, e.LeaveUnits,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return late.Event{}, late.ErrLateNotFound
		}
		return late.Event{}, fmt.Errorf("failed to update late event: %w", err)
	}
	return e, nil
}

// Delete implements late.LateRepository.
func (r *lateRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM late_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete late event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return late.ErrLateNotFound
	}
	return nil
}

type policyRepository struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) late.PolicyRepository {
	return &policyRepository{db: db}
}

// Get implements late.PolicyRepository. The policy is a single row.
func (r *policyRepository) Get(ctx context.Context) (late.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT deduction_preference, grace_days_per_month, late_threshold_minutes, half_days_to_full_day,
			   grace_period_minutes, half_day_boundary, leave_bucket, auto_approve_under_minutes,
			   is_enabled, updated_by, updated_at
		FROM late_policy
		WHERE id = 1
	`

	var p late.Policy
	err := q.QueryRow(ctx, query).Scan(
		&p.DeductionPreference, &p.GraceDaysPerMonth, &p.LateThresholdMinutes, &p.HalfDaysToFullDay,
		&p.GracePeriodMinutes, &p.HalfDayBoundary, &p.LeaveBucket, &p.AutoApproveUnderMinutes,
		&p.IsEnabled, &p.UpdatedBy, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return late.Policy{}, late.ErrPolicyNotFound
		}
		return late.Policy{}, fmt.Errorf("failed to get late policy: %w", err)
	}
	return p, nil
}

// Save implements late.PolicyRepository.
func (r *policyRepository) Save(ctx context.Context, p late.Policy) (late.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO late_policy (
			id, deduction_preference, grace_days_per_month, late_threshold_minutes, half_days_to_full_day,
			grace_period_minutes, half_day_boundary, leave_bucket, auto_approve_under_minutes,
			is_enabled, updated_by
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			deduction_preference = EXCLUDED.deduction_preference,
			grace_days_per_month = EXCLUDED.grace_days_per_month,
			late_threshold_minutes = EXCLUDED.late_threshold_minutes,
			half_days_to_full_day = EXCLUDED.half_days_to_full_day,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			half_day_boundary = EXCLUDED.half_day_boundary,
			leave_bucket = EXCLUDED.leave_bucket,
			auto_approve_under_minutes = EXCLUDED.auto_approve_under_minutes,
			is_enabled = EXCLUDED.is_enabled,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		p.DeductionPreference, p.GraceDaysPerMonth, p.LateThresholdMinutes, p.HalfDaysToFullDay,
		p.GracePeriodMinutes, p.HalfDayBoundary, p.LeaveBucket, p.AutoApproveUnderMinutes,
		p.IsEnabled, p.UpdatedBy,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return late.Policy{}, fmt.Errorf("failed to save late policy: %w", err)
	}
	return p, nil
}
