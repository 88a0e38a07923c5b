package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type holidayRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewHolidayRepository(db *database.DB, loc *time.Location) holiday.HolidayRepository {
	return &holidayRepository{db: db, loc: loc}
}

func (r *holidayRepository) scan(row pgx.Row) (holiday.Holiday, error) {
	var h holiday.Holiday
	if err := row.Scan(&h.ID, &h.Name, &h.Date, &h.Type, &h.IsPaid, &h.CreatedAt); err != nil {
		return holiday.Holiday{}, err
	}
	h.Date = localDate(h.Date, r.loc)
	return h, nil
}

func (r *holidayRepository) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO holidays (name, date, type, is_paid)
		VALUES ($1, $2::date, $3, $4)
		RETURNING id, created_at
	`, h.Name, dateParam(h.Date), h.Type, h.IsPaid).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return holiday.Holiday{}, holiday.ErrHolidayDateExists
		}
		return holiday.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return h, nil
}

func (r *holidayRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return holiday.ErrHolidayNotFound
	}
	return nil
}

func (r *holidayRepository) GetByDate(ctx context.Context, day time.Time) (holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	h, err := r.scan(q.QueryRow(ctx, `
		SELECT id, name, date, type, is_paid, created_at
		FROM holidays
		WHERE date = $1::date
	`, dateParam(day)))
	if err != nil {
		if isNoRows(err) {
			return holiday.Holiday{}, holiday.ErrHolidayNotFound
		}
		return holiday.Holiday{}, fmt.Errorf("failed to get holiday: %w", err)
	}
	return h, nil
}

func (r *holidayRepository) ListByRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, date, type, is_paid, created_at
		FROM holidays
		WHERE date >= $1::date AND date < $2::date
		ORDER BY date
	`, dateParam(from.In(r.loc)), dateParam(to.In(r.loc)))
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	holidays := []holiday.Holiday{}
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

type leaveApplicationRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewLeaveApplicationRepository(db *database.DB, loc *time.Location) leave.ApplicationRepository {
	return &leaveApplicationRepository{db: db, loc: loc}
}

// ListApprovedHalfDays implements leave.ApplicationRepository.
func (r *leaveApplicationRepository) ListApprovedHalfDays(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, bucket, start_date, end_date, is_half_day, status, created_at
		FROM leave_applications
		WHERE employee_id = $1
		  AND is_half_day = true
		  AND status = 'approved'
		  AND start_date >= $2::date AND start_date < $3::date
		ORDER BY start_date
	`, employeeID, dateParam(from.In(r.loc)), dateParam(to.In(r.loc)))
	if err != nil {
		return nil, fmt.Errorf("failed to list half-day leave: %w", err)
	}
	defer rows.Close()

	apps := []leave.Application{}
	for rows.Next() {
		var a leave.Application
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Bucket, &a.StartDate, &a.EndDate, &a.IsHalfDay, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leave application: %w", err)
		}
		a.StartDate = localDate(a.StartDate, r.loc)
		a.EndDate = localDate(a.EndDate, r.loc)
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
