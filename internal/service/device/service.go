package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
)

type SyncServiceImpl struct {
	attendanceService attendance.AttendanceService
	employeeService   employee.EmployeeService
	sources           []device.Source
	now               func() time.Time
	running           atomic.Bool
}

func NewSyncService(
	attendanceService attendance.AttendanceService,
	employeeService employee.EmployeeService,
	sources ...device.Source,
) *SyncServiceImpl {
	return &SyncServiceImpl{
		attendanceService: attendanceService,
		employeeService:   employeeService,
		sources:           sources,
		now:               time.Now,
	}
}

// Ingest implements device.SyncService. Logs are replayed in timestamp order
// so direction inference sees punches the way they happened.
func (s *SyncServiceImpl) Ingest(ctx context.Context, source string, logs []device.RawLog) (device.SyncResult, error) {
	result := device.SyncResult{Source: source, Received: len(logs), StartedAt: s.now()}
	if len(logs) == 0 {
		return result, device.ErrEmptyBatch
	}

	ordered := make([]device.RawLog, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })

	for _, l := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fail := func(err error) {
			result.Errors = append(result.Errors, device.LogError{DeviceUserID: l.DeviceUserID, Timestamp: l.Timestamp, Error: err.Error()})
		}

		emp, err := s.employeeService.FindByDeviceUser(ctx, l.DeviceUserID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				result.Skipped++
			} else {
				result.Failed++
			}
			fail(err)
			continue
		}

		res, err := s.attendanceService.RecordPunch(ctx, attendance.RecordPunchRequest{
			EmployeeID: emp.ID,
			Timestamp:  l.Timestamp,
			Direction:  device.ParseDirection(l.DirectionHint),
			Source:     source,
			Location:   l.Location,
		})
		switch {
		case errors.Is(err, employee.ErrEmployeeInactive), errors.Is(err, attendance.ErrAttendanceLocked):
			result.Skipped++
			fail(err)
		case err != nil:
			result.Failed++
			fail(err)
		case res.Duplicate:
			result.Duplicates++
		default:
			result.Processed++
		}
	}

	result.FinishedAt = s.now()
	slog.Info("Device logs ingested",
		"source", source,
		"received", result.Received,
		"processed", result.Processed,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// SyncAll implements device.SyncService. A source whose pull or ack fails
// is logged and the remaining sources still run.
func (s *SyncServiceImpl) SyncAll(ctx context.Context) ([]device.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, device.ErrSyncInProgress
	}
	defer s.running.Store(false)

	results := make([]device.SyncResult, 0, len(s.sources))
	var errs []error
	for _, src := range s.sources {
		res, err := s.syncSource(ctx, src)
		if err != nil {
			slog.Error("Device sync failed", "source", src.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *SyncServiceImpl) syncSource(ctx context.Context, src device.Source) (device.SyncResult, error) {
	batch, err := src.Pull(ctx)
	if err != nil {
		return device.SyncResult{}, fmt.Errorf("failed to pull %s: %w", src.Name(), err)
	}
	if len(batch.Logs) == 0 {
		now := s.now()
		return device.SyncResult{Source: src.Name(), StartedAt: now, FinishedAt: now}, nil
	}

	res, err := s.Ingest(ctx, src.Name(), batch.Logs)
	if err != nil {
		return res, fmt.Errorf("failed to ingest %s: %w", src.Name(), err)
	}
	if batch.Ack != nil {
		if err := batch.Ack(ctx); err != nil {
			return res, fmt.Errorf("failed to ack %s: %w", src.Name(), err)
		}
	}
	return res, nil
}
