package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const batchConcurrency = 4

type Options struct {
	Location    *time.Location
	CompanyName string
	Now         func() time.Time
}

type PayrollServiceImpl struct {
	tx             database.Transactor
	locker         keylock.Locker
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	lateRepo       late.LateRepository
	lateService    late.LateService
	loc            *time.Location
	companyName    string
	now            func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	locker keylock.Locker,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	lateRepo late.LateRepository,
	lateService late.LateService,
	opts Options,
) *PayrollServiceImpl {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PayrollServiceImpl{
		tx:             tx,
		locker:         locker,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		lateRepo:       lateRepo,
		lateService:    lateService,
		loc:            opts.Location,
		companyName:    opts.CompanyName,
		now:            opts.Now,
	}
}

func payrollKey(employeeID string, month timeutil.Month) string {
	return fmt.Sprintf("payroll:%s:%s", employeeID, month)
}

// Generate implements payroll.PayrollService. The snapshot, the leave
// balance and the late events are written in one transaction.
func (s *PayrollServiceImpl) Generate(ctx context.Context, req payroll.GenerateOne) (payroll.GenerateResult, error) {
	if req.Month.IsZero() {
		return payroll.GenerateResult{}, payroll.ErrInvalidPeriod
	}

	unlock, err := s.locker.Lock(ctx, payrollKey(req.EmployeeID, req.Month))
	if err != nil {
		return payroll.GenerateResult{}, fmt.Errorf("failed to lock payroll: %w", err)
	}
	defer unlock()

	var result payroll.GenerateResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
		if err != nil {
			return err
		}

		existing, err := s.payrollRepo.GetByEmployeeMonth(ctx, emp.ID, req.Month)
		exists := err == nil
		if err != nil && !errors.Is(err, payroll.ErrPayrollNotFound) {
			return fmt.Errorf("failed to get payroll: %w", err)
		}
		if exists && !req.Regenerate {
			result = payroll.GenerateResult{Snapshot: existing, Skipped: true}
			return nil
		}
		if exists && existing.IsLocked() {
			return payroll.ErrPayrollLocked
		}

		snap, err := s.assemble(ctx, emp, req, existing, exists)
		if err != nil {
			return err
		}

		saved, err := s.payrollRepo.Save(ctx, snap)
		if err != nil {
			return fmt.Errorf("failed to save payroll: %w", err)
		}
		result = payroll.GenerateResult{Snapshot: saved}
		return nil
	})
	if err != nil {
		return payroll.GenerateResult{}, err
	}

	if result.Skipped {
		slog.Debug("Payroll exists, skipped", "employee_id", req.EmployeeID, "month", req.Month.String())
	} else {
		slog.Info("Payroll generated",
			"employee_id", req.EmployeeID,
			"month", req.Month.String(),
			"version", result.Snapshot.Version,
			"net_salary", result.Snapshot.NetSalary.StringFixed(2),
		)
	}
	return result, nil
}

// assemble resolves the month and builds the snapshot, applying the leave
// and late-event side effects. It must run inside a transaction.
func (s *PayrollServiceImpl) assemble(ctx context.Context, emp employee.Employee, req payroll.GenerateOne, existing payroll.Snapshot, exists bool) (payroll.Snapshot, error) {
	policy, err := s.lateService.GetPolicy(ctx)
	if err != nil {
		return payroll.Snapshot{}, err
	}
	from, to := req.Month.Start(s.loc), req.Month.End(s.loc)

	events, err := s.lateRepo.ListByEmployeeAndRange(ctx, emp.ID, from, to)
	if err != nil {
		return payroll.Snapshot{}, fmt.Errorf("failed to list late events: %w", err)
	}
	if !exists {
		for _, e := range events {
			if e.IsDeducted {
				return payroll.Snapshot{}, fmt.Errorf("late event %s: %w", e.ID, late.ErrAlreadyResolved)
			}
		}
	}

	// A regeneration first returns what the previous run took.
	balance := emp.LeaveBalance.Clone()
	if exists && existing.LeaveUnitsDebited.IsPositive() {
		bucket := existing.LeaveBucket
		if bucket == "" {
			bucket = policy.LeaveBucket
		}
		if err := balance.Credit(bucket, existing.LeaveUnitsDebited); err != nil {
			return payroll.Snapshot{}, err
		}
	}

	_, res, err := s.lateService.ResolveMonth(ctx, late.ResolveMonthRequest{
		Employee:       emp,
		Month:          req.Month,
		OpeningBalance: balance.Get(policy.LeaveBucket),
		Policy:         policy,
	})
	if err != nil {
		return payroll.Snapshot{}, err
	}

	units := res.TotalLeaveUnits()
	if units.IsPositive() {
		if err := balance.Debit(policy.LeaveBucket, units); err != nil {
			return payroll.Snapshot{}, fmt.Errorf("failed to debit %s leave: %w", policy.LeaveBucket, err)
		}
	}
	if exists || units.IsPositive() {
		if err := s.employeeRepo.UpdateLeaveBalance(ctx, emp.ID, balance); err != nil {
			return payroll.Snapshot{}, fmt.Errorf("failed to update leave balance: %w", err)
		}
	}

	if err := s.applyResolution(ctx, events, res); err != nil {
		return payroll.Snapshot{}, err
	}

	records, err := s.attendanceRepo.ListByEmployeeAndRange(ctx, emp.ID, from, to)
	if err != nil {
		return payroll.Snapshot{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	summary := summarize(records, events)
	perDay := emp.PerDaySalary()

	snap := payroll.Snapshot{
		EmployeeID:  emp.ID,
		Month:       req.Month,
		BasicSalary: emp.BasicSalary,
		Allowances:  emp.Allowances.Clone(),
		GrossSalary: emp.GrossSalary(),
		Deductions: payroll.Deductions{
			Absent:  perDay.Mul(decimal.NewFromInt(int64(summary.Absent))),
			HalfDay: res.HalfDaySalaryDeduction,
			Late:    res.LateSalaryDeduction,
		},
		Overtime:          overtime(summary.OvertimeMinutes, perDay),
		Adjustments:       []payroll.Adjustment{},
		Attendance:        summary,
		LeaveBucket:       policy.LeaveBucket,
		LeaveUnitsDebited: units,
		Status:            payroll.PayrollStatusPending,
		Version:           1,
		GeneratedBy:       req.Actor,
	}

	if exists {
		snap.ID = existing.ID
		snap.Adjustments = existing.Adjustments
		snap.Status = existing.Status
		snap.Notes = existing.Notes
		snap.CreatedAt = existing.CreatedAt
		snap.Version = existing.Version + 1
		snap.IsRegenerated = true
	}
	snap.Recalculate()

	if exists {
		snap.RegenerationHistory = append(existing.RegenerationHistory, payroll.Regeneration{
			RegeneratedAt:     s.now(),
			RegeneratedBy:     req.Actor,
			Reason:            req.Reason,
			PreviousNetSalary: existing.NetSalary,
			NewNetSalary:      snap.NetSalary,
			Changes:           payroll.Diff(existing, snap),
		})
	}
	return snap, nil
}

// applyResolution writes each event's charge, resetting events that a
// regeneration no longer charges.
func (s *PayrollServiceImpl) applyResolution(ctx context.Context, events []late.Event, res late.Resolution) error {
	for _, e := range events {
		er, ok := res.ForEvent(e.ID)
		if !ok {
			continue
		}
		next := e
		if er.Outcome == late.OutcomeDeducted {
			next.IsDeducted = true
			next.DeductionType = er.Charge.Type
			next.DeductionAmount = er.Charge.SalaryAmount
			next.LeaveUnits = er.Charge.LeaveUnits
		} else {
			next.IsDeducted = false
			next.DeductionType = late.DeductionNone
			next.DeductionAmount = decimal.Zero
			next.LeaveUnits = decimal.Zero
		}
		if next.IsDeducted == e.IsDeducted && next.DeductionType == e.DeductionType &&
			next.DeductionAmount.Equal(e.DeductionAmount) && next.LeaveUnits.Equal(e.LeaveUnits) {
			continue
		}
		if _, err := s.lateRepo.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to update late event %s: %w", e.ID, err)
		}
	}
	return nil
}

func summarize(records []attendance.Record, events []late.Event) payroll.AttendanceSummary {
	var sum payroll.AttendanceSummary
	for _, rec := range records {
		switch rec.Status {
		case attendance.StatusPresent:
			if rec.IsOffDay {
				sum.OffDayWorked++
			} else {
				sum.Present++
			}
		case attendance.StatusAbsent:
			sum.Absent++
		case attendance.StatusLeave:
			sum.Leave++
		}
		if rec.IsHalfDay {
			sum.HalfDay++
		}
		sum.OvertimeMinutes += rec.OvertimeMinutes
	}
	for _, e := range events {
		sum.Late++
		if e.Status == late.StatusApproved {
			sum.LateApproved++
		}
	}
	return sum
}

// overtime values worked-over minutes at the hourly rate of an 8-hour day.
func overtime(minutes int, perDay decimal.Decimal) payroll.Overtime {
	hours := decimal.NewFromInt(int64(minutes)).DivRound(decimal.NewFromInt(60), 2)
	return payroll.Overtime{
		Minutes: minutes,
		Hours:   hours,
		Amount:  hours.Mul(perDay).DivRound(decimal.NewFromInt(8), 2),
	}
}

// GenerateBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateBatch(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResult{}, err
	}
	month, _ := timeutil.ParseMonth(req.Month)

	ids := req.EmployeeIDs
	if len(ids) == 0 {
		employees, err := s.employeeRepo.ListActive(ctx)
		if err != nil {
			return payroll.BatchResult{}, fmt.Errorf("failed to list active employees: %w", err)
		}
		for _, emp := range employees {
			ids = append(ids, emp.ID)
		}
	}

	result := payroll.BatchResult{
		Month:     month.String(),
		Generated: []string{},
		Skipped:   []string{},
		Failed:    []payroll.EmployeeError{},
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			res, err := s.Generate(gctx, payroll.GenerateOne{
				EmployeeID: id,
				Month:      month,
				Regenerate: req.Regenerate,
				Reason:     req.Reason,
				Actor:      req.Actor,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				slog.Warn("Payroll generation failed", "employee_id", id, "month", month.String(), "error", err)
				result.Failed = append(result.Failed, payroll.EmployeeError{EmployeeID: id, Error: err.Error()})
			case res.Skipped:
				result.Skipped = append(result.Skipped, id)
			default:
				result.Generated = append(result.Generated, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Generated)
	sort.Strings(result.Skipped)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].EmployeeID < result.Failed[j].EmployeeID })

	slog.Info("Payroll batch finished",
		"month", result.Month,
		"generated", len(result.Generated),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *PayrollServiceImpl) GetSnapshot(ctx context.Context, id string) (payroll.Snapshot, error) {
	return s.payrollRepo.GetByID(ctx, id)
}

func (s *PayrollServiceImpl) ListSnapshots(ctx context.Context, req payroll.ListPayrollRequest) (payroll.ListPayrollResponse, error) {
	filter, err := req.ToFilter()
	if err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	snaps, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to list payrolls: %w", err)
	}

	return payroll.ListPayrollResponse{
		Data:       snaps,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// mutate runs fn on the locked snapshot id and saves the result. Paid
// snapshots are never handed to fn.
func (s *PayrollServiceImpl) mutate(ctx context.Context, id string, fn func(ctx context.Context, snap *payroll.Snapshot) error) (payroll.Snapshot, error) {
	current, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.Snapshot{}, err
	}

	unlock, err := s.locker.Lock(ctx, payrollKey(current.EmployeeID, current.Month))
	if err != nil {
		return payroll.Snapshot{}, fmt.Errorf("failed to lock payroll: %w", err)
	}
	defer unlock()

	var saved payroll.Snapshot
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		snap, err := s.payrollRepo.GetByEmployeeMonth(ctx, current.EmployeeID, current.Month)
		if err != nil {
			return err
		}
		if snap.IsLocked() {
			return payroll.ErrPayrollLocked
		}
		if err := fn(ctx, &snap); err != nil {
			return err
		}
		saved, err = s.payrollRepo.Save(ctx, snap)
		return err
	})
	return saved, err
}

// AddAdjustment implements payroll.PayrollService.
func (s *PayrollServiceImpl) AddAdjustment(ctx context.Context, req payroll.AddAdjustmentRequest) (payroll.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return payroll.Snapshot{}, err
	}

	snap, err := s.mutate(ctx, req.PayrollID, func(ctx context.Context, snap *payroll.Snapshot) error {
		snap.Adjustments = append(snap.Adjustments, payroll.Adjustment{
			ID:          uuid.NewString(),
			Amount:      req.Amount,
			Description: req.Description,
			CreatedBy:   req.Actor,
			CreatedAt:   s.now(),
		})
		snap.Recalculate()
		return nil
	})
	if err != nil {
		return payroll.Snapshot{}, err
	}

	slog.Info("Payroll adjustment added", "payroll_id", snap.ID, "amount", req.Amount.StringFixed(2), "actor", req.Actor)
	return snap, nil
}

// RemoveAdjustment implements payroll.PayrollService.
func (s *PayrollServiceImpl) RemoveAdjustment(ctx context.Context, payrollID, adjustmentID string) (payroll.Snapshot, error) {
	return s.mutate(ctx, payrollID, func(ctx context.Context, snap *payroll.Snapshot) error {
		kept := make([]payroll.Adjustment, 0, len(snap.Adjustments))
		for _, a := range snap.Adjustments {
			if a.ID != adjustmentID {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(snap.Adjustments) {
			return payroll.ErrAdjustmentNotFound
		}
		snap.Adjustments = kept
		snap.Recalculate()
		return nil
	})
}

// SetStatus implements payroll.PayrollService. Marking a snapshot paid
// locks the month's attendance.
func (s *PayrollServiceImpl) SetStatus(ctx context.Context, req payroll.SetStatusRequest) (payroll.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return payroll.Snapshot{}, err
	}

	snap, err := s.mutate(ctx, req.PayrollID, func(ctx context.Context, snap *payroll.Snapshot) error {
		snap.Status = req.Status
		if req.Notes != nil {
			snap.Notes = req.Notes
		}
		if req.Status != payroll.PayrollStatusPaid {
			return nil
		}

		paidAt := s.now()
		snap.PaidAt = &paidAt
		return s.attendanceRepo.LockRange(ctx, snap.EmployeeID, snap.Month.Start(s.loc), snap.Month.End(s.loc))
	})
	if err != nil {
		return payroll.Snapshot{}, err
	}

	slog.Info("Payroll status changed", "payroll_id", snap.ID, "status", snap.Status, "actor", req.Actor)
	return snap, nil
}

// previewBalance is the opening balance a regeneration would start from.
func previewBalance(emp employee.Employee, existing *payroll.Snapshot, bucket leave.Bucket) decimal.Decimal {
	opening := emp.LeaveBalance.Get(bucket)
	if existing != nil && existing.LeaveBucket == bucket {
		opening = opening.Add(existing.LeaveUnitsDebited)
	}
	return opening
}
