package kafka

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
)

// ConsumePunches ingests the punch topic one message at a time until ctx is
// done. A message is committed once ingested or found malformed; an ingest
// error leaves it uncommitted for redelivery.
func ConsumePunches(ctx context.Context, source string, reader MessageReader, sync device.SyncService) {
	log := slog.With("component", "kafka.consumer.punches", "source", source)
	log.Info("punch consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("punch consumer stopped")
				return
			}
			log.Error("fetch punch message failed", "error", err)
			continue
		}

		l, err := decodeLog(msg)
		if err != nil {
			log.Error("decode punch message failed", "error", err)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if _, err := sync.Ingest(ctx, source, []device.RawLog{l}); err != nil {
			log.Error("ingest punch failed", "device_user_id", l.DeviceUserID, "error", err)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit punch message failed", "error", err)
		}
	}
}
