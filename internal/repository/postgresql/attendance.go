package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewAttendanceRepository(db *database.DB, loc *time.Location) attendance.AttendanceRepository {
	return &attendanceRepository{db: db, loc: loc}
}

const attendanceColumns = `
	id, employee_id, date, status, punches,
	first_in, last_out, verdict, late_minutes, early_minutes, overtime_minutes,
	early_leave_minutes, total_break_minutes, net_working_minutes,
	has_overtime, is_early_leave, is_half_day, is_off_day, is_off_day_work, used_grace_period,
	is_edited, audit_log, is_locked, created_at, updated_at`

func (a *attendanceRepository) scan(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.Punches,
		&rec.FirstIn, &rec.LastOut, &rec.Verdict, &rec.LateMinutes, &rec.EarlyMinutes, &rec.OvertimeMinutes,
		&rec.EarlyLeaveMinutes, &rec.TotalBreakMinutes, &rec.NetWorkingMinutes,
		&rec.HasOvertime, &rec.IsEarlyLeave, &rec.IsHalfDay, &rec.IsOffDay, &rec.IsOffDayWork, &rec.UsedGracePeriod,
		&rec.IsEdited, &rec.AuditLog, &rec.IsLocked, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	rec.Date = localDate(rec.Date, a.loc)
	if rec.Punches == nil {
		rec.Punches = []attendance.Punch{}
	}
	return rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := forUpdate(ctx, "SELECT"+attendanceColumns+" FROM attendance_records WHERE id = $1")
	rec, err := a.scan(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}
	return rec, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := forUpdate(ctx, "SELECT"+attendanceColumns+" FROM attendance_records WHERE employee_id = $1 AND date = $2::date")
	rec, err := a.scan(q.QueryRow(ctx, query, employeeID, dateParam(day)))
	if err != nil {
		if isNoRows(err) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return rec, nil
}

// Save implements attendance.AttendanceRepository.
func (a *attendanceRepository) Save(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, date, status, punches,
			first_in, last_out, verdict, late_minutes, early_minutes, overtime_minutes,
			early_leave_minutes, total_break_minutes, net_working_minutes,
			has_overtime, is_early_leave, is_half_day, is_off_day, is_off_day_work, used_grace_period,
			is_edited, audit_log, is_locked
		) VALUES (
			$1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			punches = EXCLUDED.punches,
			first_in = EXCLUDED.first_in,
			last_out = EXCLUDED.last_out,
			verdict = EXCLUDED.verdict,
			late_minutes = EXCLUDED.late_minutes,
			early_minutes = EXCLUDED.early_minutes,
			overtime_minutes = EXCLUDED.overtime_minutes,
			early_leave_minutes = EXCLUDED.early_leave_minutes,
			total_break_minutes = EXCLUDED.total_break_minutes,
			net_working_minutes = EXCLUDED.net_working_minutes,
			has_overtime = EXCLUDED.has_overtime,
			is_early_leave = EXCLUDED.is_early_leave,
			is_half_day = EXCLUDED.is_half_day,
			is_off_day = EXCLUDED.is_off_day,
			is_off_day_work = EXCLUDED.is_off_day_work,
			used_grace_period = EXCLUDED.used_grace_period,
			is_edited = EXCLUDED.is_edited,
			audit_log = EXCLUDED.audit_log,
			is_locked = EXCLUDED.is_locked,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	punches := rec.Punches
	if punches == nil {
		punches = []attendance.Punch{}
	}
	audit := rec.AuditLog
	if audit == nil {
		audit = []attendance.AuditEntry{}
	}

	err := q.QueryRow(ctx, query,
		rec.EmployeeID, dateParam(rec.Date), rec.Status, punches,
		rec.FirstIn, rec.LastOut, rec.Verdict, rec.LateMinutes, rec.EarlyMinutes, rec.OvertimeMinutes,
		rec.EarlyLeaveMinutes, rec.TotalBreakMinutes, rec.NetWorkingMinutes,
		rec.HasOvertime, rec.IsEarlyLeave, rec.IsHalfDay, rec.IsOffDay, rec.IsOffDayWork, rec.UsedGracePeriod,
		rec.IsEdited, audit, rec.IsLocked,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to save attendance: %w", err)
	}

	return rec, nil
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := "SELECT" + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date >= $2::date AND date < $3::date
		ORDER BY date`

	rows, err := q.Query(ctx, query, employeeID, dateParam(from.In(a.loc)), dateParam(to.In(a.loc)))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		rec, err := a.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LockRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockRange(ctx context.Context, employeeID string, from, to time.Time) error {
	q := GetQuerier(ctx, a.db)

	_, err := q.Exec(ctx, `
		UPDATE attendance_records
		SET is_locked = true, updated_at = NOW()
		WHERE employee_id = $1 AND date >= $2::date AND date < $3::date
	`, employeeID, dateParam(from.In(a.loc)), dateParam(to.In(a.loc)))
	if err != nil {
		return fmt.Errorf("failed to lock attendance: %w", err)
	}
	return nil
}
