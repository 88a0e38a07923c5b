package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

const MarkAbsentJob = "mark_absent_employees"

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	loc               *time.Location
	now               func() time.Time

	mu      sync.Mutex
	lastDay string
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, loc *time.Location) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		loc:               loc,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(MarkAbsentJob, 1*time.Hour, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees closes yesterday (org-local) once per day.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	today := timeutil.LocalCalendarDay(j.now(), j.loc)
	yesterday := today.AddDate(0, 0, -1)
	key := yesterday.Format(timeutil.DateLayout)

	j.mu.Lock()
	done := j.lastDay == key
	j.mu.Unlock()
	if done {
		return nil
	}

	slog.Info("Cron: Starting mark absent employees job", "date", key)

	res, err := j.attendanceService.MarkAbsent(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to mark absent: %w", err)
	}

	j.mu.Lock()
	j.lastDay = key
	j.mu.Unlock()

	slog.Info("Cron: Marked absent employees",
		"date", res.Date,
		"absent", res.Absent,
		"off_day", res.OffDay,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return nil
}
