package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/google/uuid"
)

// DayClassifier tells working days from weekends and holidays.
type DayClassifier interface {
	Classify(ctx context.Context, day time.Time) (holiday.DayKind, error)
}

// EventPublisher receives ledger changes for the live attendance feed.
type EventPublisher interface {
	Publish(event sse.Event)
}

type Options struct {
	Location     *time.Location
	DefaultShift attendance.Shift
	Now          func() time.Time
	Events       EventPublisher
}

type AttendanceServiceImpl struct {
	tx             database.Transactor
	locker         keylock.Locker
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	policies       late.PolicyProvider
	calendar       DayClassifier
	loc            *time.Location
	defaultShift   attendance.Shift
	now            func() time.Time
	events         EventPublisher
}

func NewAttendanceService(
	tx database.Transactor,
	locker keylock.Locker,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	policies late.PolicyProvider,
	calendar DayClassifier,
	opts Options,
) *AttendanceServiceImpl {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultShift.Start == "" {
		opts.DefaultShift.Start = employee.DefaultShiftStart
	}
	if opts.DefaultShift.End == "" {
		opts.DefaultShift.End = employee.DefaultShiftEnd
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttendanceServiceImpl{
		tx:             tx,
		locker:         locker,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		policies:       policies,
		calendar:       calendar,
		loc:            opts.Location,
		defaultShift:   opts.DefaultShift,
		now:            opts.Now,
		events:         opts.Events,
	}
}

func (s *AttendanceServiceImpl) publish(name string, rec attendance.Record) {
	if s.events == nil {
		return
	}
	s.events.Publish(sse.Event{
		Topic: sse.TopicAttendance,
		Event: name,
		Data:  attendance.NewDayEvent(rec),
	})
}

func dayKey(employeeID string, day time.Time) string {
	return fmt.Sprintf("attendance:%s:%s", employeeID, day.Format(timeutil.DateLayout))
}

// RecordPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.PunchResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResult{}, err
	}

	day := timeutil.LocalCalendarDay(req.Timestamp, s.loc)
	unlock, err := s.locker.Lock(ctx, dayKey(req.EmployeeID, day))
	if err != nil {
		return attendance.PunchResult{}, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	defer unlock()

	var result attendance.PunchResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if !emp.IsActive {
			return employee.ErrEmployeeInactive
		}

		rec, err := s.loadOrNew(ctx, emp.ID, day)
		if err != nil {
			return err
		}
		if rec.IsLocked {
			return attendance.ErrAttendanceLocked
		}

		source := req.Source
		if source == "" {
			source = attendance.SourceManual
		}
		direction := req.Direction
		if direction == "" {
			direction = attendance.NextDirection(rec.Punches, req.Timestamp)
		}
		punch := attendance.Punch{
			ID:        uuid.NewString(),
			Timestamp: req.Timestamp.In(s.loc),
			Direction: direction,
			Source:    source,
			Location:  req.Location,
		}

		if err := AddPunch(&rec, punch); err != nil {
			if errors.Is(err, attendance.ErrDuplicatePunch) {
				slog.Debug("Duplicate punch dropped",
					"employee_id", emp.ID,
					"timestamp", req.Timestamp,
					"source", source,
				)
				result = attendance.PunchResult{Record: rec, Duplicate: true}
				return nil
			}
			return err
		}

		if err := s.recompute(ctx, &rec, emp); err != nil {
			return err
		}

		saved, err := s.attendanceRepo.Save(ctx, rec)
		if err != nil {
			return fmt.Errorf("failed to save attendance: %w", err)
		}
		result = attendance.PunchResult{Record: saved}
		return nil
	})
	if err != nil {
		return attendance.PunchResult{}, err
	}

	if !result.Duplicate {
		slog.Info("Punch recorded",
			"employee_id", req.EmployeeID,
			"date", day.Format(timeutil.DateLayout),
			"punches", len(result.Record.Punches),
			"verdict", result.Record.Verdict,
		)
		s.publish("punch.recorded", result.Record)
	}
	return result, nil
}

// CorrectPunches implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CorrectPunches(ctx context.Context, req attendance.CorrectPunchesRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	current, err := s.attendanceRepo.GetByID(ctx, req.RecordID)
	if err != nil {
		return attendance.Record{}, err
	}

	unlock, err := s.locker.Lock(ctx, dayKey(current.EmployeeID, current.Date))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	defer unlock()

	var out attendance.Record
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, current.EmployeeID, current.Date)
		if err != nil {
			return err
		}
		if rec.IsLocked {
			return attendance.ErrAttendanceLocked
		}

		emp, err := s.employeeRepo.GetByID(ctx, rec.EmployeeID)
		if err != nil {
			return err
		}

		previous := rec.Punches
		previousVerdict := rec.Verdict
		rec.Punches = nil
		for _, in := range req.Punches {
			if !timeutil.LocalCalendarDay(in.Timestamp, s.loc).Equal(rec.Date) {
				return validator.ValidationErrors{{
					Field:   "punches",
					Message: fmt.Sprintf("punch %s is not on %s", in.Timestamp.Format(time.RFC3339), rec.Date.Format(timeutil.DateLayout)),
				}}
			}
			p := attendance.Punch{
				ID:        uuid.NewString(),
				Timestamp: in.Timestamp.In(s.loc),
				Direction: in.Direction,
				Source:    attendance.SourceManual,
				Location:  in.Location,
			}
			if err := AddPunch(&rec, p); err != nil && !errors.Is(err, attendance.ErrDuplicatePunch) {
				return err
			}
		}
		if len(rec.Punches) == 0 {
			rec.Status = attendance.StatusAbsent
		}

		if err := s.recompute(ctx, &rec, emp); err != nil {
			return err
		}
		rec.IsEdited = true
		rec.AuditLog = append(rec.AuditLog, attendance.AuditEntry{
			Action:          "correct_punches",
			Actor:           req.Actor,
			Reason:          req.Reason,
			At:              s.now(),
			PreviousPunches: previous,
			PreviousVerdict: previousVerdict,
		})

		out, err = s.attendanceRepo.Save(ctx, rec)
		return err
	})
	if err != nil {
		return attendance.Record{}, err
	}

	slog.Info("Attendance corrected", "record_id", out.ID, "actor", req.Actor, "punches", len(out.Punches))
	s.publish("punch.corrected", out)
	return out, nil
}

// GetDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDay(ctx context.Context, req attendance.GetDayRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}
	date, _ := time.ParseInLocation(timeutil.DateLayout, req.Date, s.loc)
	return s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
}

// ListMonth implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListMonth(ctx context.Context, req attendance.MonthRequest) ([]attendance.Record, error) {
	return s.attendanceRepo.ListByEmployeeAndRange(ctx, req.EmployeeID, req.Month.Start(s.loc), req.Month.End(s.loc))
}

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, day time.Time) (attendance.MarkAbsentResult, error) {
	day = timeutil.LocalCalendarDay(day, s.loc)
	result := attendance.MarkAbsentResult{Date: day.Format(timeutil.DateLayout)}

	kind, err := s.calendar.Classify(ctx, day)
	if err != nil {
		return result, fmt.Errorf("failed to classify day: %w", err)
	}

	employees, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list active employees: %w", err)
	}

	status := attendance.StatusAbsent
	switch kind {
	case holiday.DayHoliday:
		status = attendance.StatusHoliday
	case holiday.DayWeekend:
		status = attendance.StatusWeekend
	}

	for _, emp := range employees {
		created, err := s.markOne(ctx, emp.ID, day, status, kind.IsOffDay())
		if err != nil {
			result.Failed++
			slog.Error("Failed to mark attendance", "employee_id", emp.ID, "date", result.Date, "error", err)
			continue
		}
		switch {
		case !created:
			result.Skipped++
		case kind.IsOffDay():
			result.OffDay++
		default:
			result.Absent++
		}
	}

	return result, nil
}

func (s *AttendanceServiceImpl) markOne(ctx context.Context, employeeID string, day time.Time, status attendance.Status, offDay bool) (bool, error) {
	unlock, err := s.locker.Lock(ctx, dayKey(employeeID, day))
	if err != nil {
		return false, err
	}
	defer unlock()

	created := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, day)
		if err == nil {
			return nil
		}
		if !errors.Is(err, attendance.ErrAttendanceNotFound) {
			return err
		}
		_, err = s.attendanceRepo.Save(ctx, attendance.Record{
			EmployeeID: employeeID,
			Date:       day,
			Status:     status,
			IsOffDay:   offDay,
		})
		created = err == nil
		return err
	})
	return created, err
}

func (s *AttendanceServiceImpl) loadOrNew(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	rec, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, day)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Record{}, fmt.Errorf("failed to load attendance: %w", err)
	}
	return attendance.Record{
		EmployeeID: employeeID,
		Date:       day,
		Status:     attendance.StatusPresent,
	}, nil
}

func (s *AttendanceServiceImpl) recompute(ctx context.Context, rec *attendance.Record, emp employee.Employee) error {
	policy, err := s.policies.GetPolicy(ctx)
	if err != nil {
		return fmt.Errorf("failed to load late policy: %w", err)
	}
	kind, err := s.calendar.Classify(ctx, rec.Date)
	if err != nil {
		return fmt.Errorf("failed to classify day: %w", err)
	}
	return Recompute(rec, s.shiftFor(emp), policy.TimingRules(), kind.IsOffDay())
}

// shiftFor returns the employee's shift, falling back to the default shift
// for a malformed value. A bad shift never fails a punch.
func (s *AttendanceServiceImpl) shiftFor(emp employee.Employee) attendance.Shift {
	shift := attendance.Shift{Start: emp.ShiftStart, End: emp.ShiftEnd}
	if _, _, err := timeutil.ParseHHMM(shift.Start); err != nil {
		slog.Warn("Invalid shift start, using default", "employee_id", emp.ID, "shift_start", shift.Start)
		shift.Start = s.defaultShift.Start
	}
	if _, _, err := timeutil.ParseHHMM(shift.End); err != nil {
		slog.Warn("Invalid shift end, using default", "employee_id", emp.ID, "shift_end", shift.End)
		shift.End = s.defaultShift.End
	}
	return shift
}
