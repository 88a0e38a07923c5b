package device

import (
	"context"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
)

// RawLog is one punch as reported by a biometric device.
type RawLog struct {
	DeviceID      string    `json:"device_id"`
	DeviceUserID  string    `json:"device_user_id"`
	Timestamp     time.Time `json:"timestamp"`
	DirectionHint string    `json:"direction,omitempty"`
	Location      *string   `json:"location,omitempty"`
}

// ParseDirection maps a device direction hint to a direction. Unknown or
// empty hints return "" so the ledger infers the direction.
func ParseDirection(hint string) attendance.Direction {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "in", "i", "check-in", "checkin", "0", "4":
		return attendance.DirectionIn
	case "out", "o", "check-out", "checkout", "1", "5":
		return attendance.DirectionOut
	default:
		return ""
	}
}

// Batch is a pulled set of logs. Ack is called once the batch has been
// ingested so the source does not redeliver it.
type Batch struct {
	Logs []RawLog
	Ack  func(ctx context.Context) error
}

// Source is a pull-based device feed.
type Source interface {
	Name() string
	Pull(ctx context.Context) (Batch, error)
}

type LogError struct {
	DeviceUserID string    `json:"device_user_id"`
	Timestamp    time.Time `json:"timestamp"`
	Error        string    `json:"error"`
}

type SyncResult struct {
	Source     string     `json:"source"`
	Received   int        `json:"received"`
	Processed  int        `json:"processed"`
	Duplicates int        `json:"duplicates"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Errors     []LogError `json:"errors,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
