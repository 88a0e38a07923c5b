package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	kafkago "github.com/segmentio/kafka-go"
)

// BatchSource drains the punch topic in bounded batches for the periodic
// device sync. Offsets are committed only through the batch's Ack.
type BatchSource struct {
	name      string
	reader    MessageReader
	batchSize int
	wait      time.Duration
}

func NewBatchSource(name string, reader MessageReader, batchSize int, wait time.Duration) *BatchSource {
	if batchSize <= 0 {
		batchSize = 500
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &BatchSource{name: name, reader: reader, batchSize: batchSize, wait: wait}
}

func (s *BatchSource) Name() string {
	return s.name
}

// Pull implements device.Source. It returns once batchSize messages are read
// or no message arrived within the wait window.
func (s *BatchSource) Pull(ctx context.Context) (device.Batch, error) {
	var msgs []kafkago.Message
	var logs []device.RawLog

	for len(msgs) < s.batchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, s.wait)
		msg, err := s.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			return device.Batch{}, err
		}

		msgs = append(msgs, msg)
		l, err := decodeLog(msg)
		if err != nil {
			slog.Warn("Skipping malformed punch message", "source", s.name, "error", err)
			continue
		}
		logs = append(logs, l)
	}

	return device.Batch{
		Logs: logs,
		Ack: func(ctx context.Context) error {
			if len(msgs) == 0 {
				return nil
			}
			return s.reader.CommitMessages(ctx, msgs...)
		},
	}, nil
}
