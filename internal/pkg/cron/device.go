package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
)

const DeviceSyncJob = "sync_devices"

// DeviceJobs pulls every registered device source on an interval.
type DeviceJobs struct {
	syncService device.SyncService
	interval    time.Duration
}

func NewDeviceJobs(syncService device.SyncService, interval time.Duration) *DeviceJobs {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DeviceJobs{syncService: syncService, interval: interval}
}

func (j *DeviceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(DeviceSyncJob, j.interval, j.SyncDevices)
}

func (j *DeviceJobs) SyncDevices(ctx context.Context) error {
	results, err := j.syncService.SyncAll(ctx)
	if errors.Is(err, device.ErrSyncInProgress) {
		slog.Info("Cron: Device sync already running, skipped")
		return nil
	}

	for _, r := range results {
		slog.Info("Cron: Device source synced",
			"source", r.Source,
			"processed", r.Processed,
			"duplicates", r.Duplicates,
			"skipped", r.Skipped,
			"failed", r.Failed,
		)
	}
	return err
}
