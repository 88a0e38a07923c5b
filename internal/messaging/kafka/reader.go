package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	kafkago "github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafkago.Reader the punch feed uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func NewReader(cfg ReaderConfig) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0,
	})
}

// decodeLog reads one punch message. The message key names the device when
// the payload does not.
func decodeLog(msg kafkago.Message) (device.RawLog, error) {
	var l device.RawLog
	if err := json.Unmarshal(msg.Value, &l); err != nil {
		return device.RawLog{}, fmt.Errorf("decode punch message at offset %d: %w", msg.Offset, err)
	}
	if l.DeviceID == "" {
		l.DeviceID = string(msg.Key)
	}
	if l.DeviceUserID == "" || l.Timestamp.IsZero() {
		return device.RawLog{}, fmt.Errorf("punch message at offset %d has no device_user_id or timestamp", msg.Offset)
	}
	return l, nil
}
