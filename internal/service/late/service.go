package late

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"golang.org/x/sync/singleflight"
)

type LateServiceImpl struct {
	tx             database.Transactor
	lateRepo       late.LateRepository
	policyRepo     late.PolicyRepository
	attendanceRepo attendance.AttendanceRepository
	leaveApps      leave.ApplicationRepository
	loc            *time.Location
	now            func() time.Time

	policyInit singleflight.Group
}

func NewLateService(
	tx database.Transactor,
	lateRepo late.LateRepository,
	policyRepo late.PolicyRepository,
	attendanceRepo attendance.AttendanceRepository,
	leaveApps leave.ApplicationRepository,
	loc *time.Location,
) *LateServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &LateServiceImpl{
		tx:             tx,
		lateRepo:       lateRepo,
		policyRepo:     policyRepo,
		attendanceRepo: attendanceRepo,
		leaveApps:      leaveApps,
		loc:            loc,
		now:            time.Now,
	}
}

// GetPolicy implements late.LateService. A missing policy is initialised
// with the defaults and persisted.
func (s *LateServiceImpl) GetPolicy(ctx context.Context) (late.Policy, error) {
	policy, err := s.policyRepo.Get(ctx)
	if err == nil {
		return policy, nil
	}
	if !errors.Is(err, late.ErrPolicyNotFound) {
		return late.Policy{}, fmt.Errorf("failed to get late policy: %w", err)
	}

	v, err, _ := s.policyInit.Do("policy", func() (interface{}, error) {
		if existing, err := s.policyRepo.Get(ctx); err == nil {
			return existing, nil
		}
		saved, err := s.policyRepo.Save(ctx, late.DefaultPolicy())
		if err != nil {
			return late.Policy{}, fmt.Errorf("failed to initialise late policy: %w", err)
		}
		slog.Info("Late policy initialised with defaults")
		return saved, nil
	})
	if err != nil {
		return late.Policy{}, err
	}
	return v.(late.Policy), nil
}

// UpdatePolicy implements late.LateService.
func (s *LateServiceImpl) UpdatePolicy(ctx context.Context, req late.UpdatePolicyRequest) (late.Policy, error) {
	current, err := s.GetPolicy(ctx)
	if err != nil {
		return late.Policy{}, err
	}

	next := req.Apply(current)
	if err := next.Validate(); err != nil {
		return late.Policy{}, err
	}

	saved, err := s.policyRepo.Save(ctx, next)
	if err != nil {
		return late.Policy{}, fmt.Errorf("failed to save late policy: %w", err)
	}
	slog.Info("Late policy updated", "updated_by", req.UpdatedBy, "preference", saved.DeductionPreference, "enabled", saved.IsEnabled)
	return saved, nil
}

// FileLate implements late.LateService.
func (s *LateServiceImpl) FileLate(ctx context.Context, req late.FileLateRequest) (late.Event, error) {
	if err := req.Validate(); err != nil {
		return late.Event{}, err
	}

	policy, err := s.GetPolicy(ctx)
	if err != nil {
		return late.Event{}, err
	}

	var created late.Event
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.attendanceRepo.GetByID(ctx, req.AttendanceID)
		if err != nil {
			return err
		}

		switch {
		case req.OwnerID != "" && rec.EmployeeID != req.OwnerID:
			return attendance.ErrUnauthorized
		case rec.IsHalfDay:
			return late.ErrHalfDayNotLate
		case rec.LateMinutes <= 0:
			return late.ErrNotLate
		case rec.LateMinutes < policy.LateThresholdMinutes:
			return late.ErrBelowThreshold
		}

		month := timeutil.MonthOf(rec.Date, s.loc)
		count, err := s.lateRepo.CountByEmployeeAndRange(ctx, rec.EmployeeID, month.Start(s.loc), month.End(s.loc))
		if err != nil {
			return fmt.Errorf("failed to count monthly lates: %w", err)
		}

		event := late.Event{
			EmployeeID:       rec.EmployeeID,
			AttendanceID:     rec.ID,
			Date:             rec.Date,
			LateMinutes:      rec.LateMinutes,
			Reason:           req.Reason,
			Status:           late.StatusPending,
			MonthlyLateCount: count + 1,
			FiledBy:          req.FiledBy,
			DeductionType:    late.DeductionNone,
		}
		if policy.AutoApproveUnderMinutes > 0 && rec.LateMinutes < policy.AutoApproveUnderMinutes {
			now := s.now()
			system := "system"
			event.Status = late.StatusApproved
			event.ReviewedBy = &system
			event.ReviewedAt = &now
		}

		created, err = s.lateRepo.Create(ctx, event)
		return err
	})
	if err != nil {
		return late.Event{}, err
	}

	slog.Info("Late filed",
		"late_id", created.ID,
		"employee_id", created.EmployeeID,
		"late_minutes", created.LateMinutes,
		"status", created.Status,
	)
	return created, nil
}

// GetLate implements late.LateService.
func (s *LateServiceImpl) GetLate(ctx context.Context, id string) (late.Event, error) {
	return s.lateRepo.GetByID(ctx, id)
}

// ListLates implements late.LateService.
func (s *LateServiceImpl) ListLates(ctx context.Context, req late.ListLatesRequest) ([]late.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filter := late.Filter{EmployeeID: req.EmployeeID}
	if req.Status != nil {
		status := late.Status(*req.Status)
		filter.Status = &status
	}
	if req.Month != nil {
		month, err := timeutil.ParseMonth(*req.Month)
		if err != nil {
			return nil, err
		}
		from, to := month.Start(s.loc), month.End(s.loc)
		filter.From, filter.To = &from, &to
	}
	return s.lateRepo.List(ctx, filter)
}

// SetLateStatus implements late.LateService. Only pending events can be
// reviewed, and a deducted event never changes status.
func (s *LateServiceImpl) SetLateStatus(ctx context.Context, req late.SetStatusRequest) (late.Event, error) {
	if err := req.Validate(); err != nil {
		return late.Event{}, err
	}

	var updated late.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.lateRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if event.IsDeducted {
			return late.ErrAlreadyResolved
		}
		if event.Status != late.StatusPending {
			return late.ErrLateAlreadyProcessed
		}

		now := s.now()
		reviewer := req.ReviewedBy
		event.Status = req.Status
		event.ReviewedBy = &reviewer
		event.ReviewedAt = &now

		updated, err = s.lateRepo.Update(ctx, event)
		return err
	})
	if err != nil {
		return late.Event{}, err
	}

	slog.Info("Late reviewed", "late_id", updated.ID, "status", updated.Status, "reviewed_by", req.ReviewedBy)
	return updated, nil
}

// DeleteLate implements late.LateService.
func (s *LateServiceImpl) DeleteLate(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.lateRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if event.Status != late.StatusPending || event.IsDeducted {
			return late.ErrLateAlreadyProcessed
		}
		return s.lateRepo.Delete(ctx, id)
	})
}

// ResolveMonth implements late.LateService.
func (s *LateServiceImpl) ResolveMonth(ctx context.Context, req late.ResolveMonthRequest) (late.MonthInput, late.Resolution, error) {
	from, to := req.Month.Start(s.loc), req.Month.End(s.loc)
	emp := req.Employee

	events, err := s.lateRepo.ListByEmployeeAndRange(ctx, emp.ID, from, to)
	if err != nil {
		return late.MonthInput{}, late.Resolution{}, fmt.Errorf("failed to list late events: %w", err)
	}

	halfDays, err := s.halfDays(ctx, emp.ID, from, to)
	if err != nil {
		return late.MonthInput{}, late.Resolution{}, err
	}

	input := late.MonthInput{Events: events, HalfDays: halfDays}
	res, err := late.Resolve(late.ResolveInput{
		Events:       events,
		HalfDays:     halfDays,
		Policy:       req.Policy,
		BasicSalary:  emp.BasicSalary,
		LeaveBalance: req.OpeningBalance,
		LeaveOnly:    req.LeaveOnly,
	})
	if err != nil {
		return input, late.Resolution{}, err
	}
	return input, res, nil
}

// halfDays merges half-day attendance with approved half-day leave. A day
// carrying both counts once.
func (s *LateServiceImpl) halfDays(ctx context.Context, employeeID string, from, to time.Time) ([]late.HalfDay, error) {
	records, err := s.attendanceRepo.ListByEmployeeAndRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	apps, err := s.leaveApps.ListApprovedHalfDays(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list half-day leave: %w", err)
	}

	seen := map[string]bool{}
	out := []late.HalfDay{}
	for _, rec := range records {
		if !rec.IsHalfDay {
			continue
		}
		key := rec.Date.Format(timeutil.DateLayout)
		seen[key] = true
		out = append(out, late.HalfDay{Date: rec.Date, Source: late.HalfDaySourceAttendance, RefID: rec.ID})
	}
	for _, app := range apps {
		day := timeutil.LocalCalendarDay(app.StartDate, s.loc)
		key := day.Format(timeutil.DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, late.HalfDay{Date: day, Source: late.HalfDaySourceLeave, RefID: app.ID})
	}
	return out, nil
}
