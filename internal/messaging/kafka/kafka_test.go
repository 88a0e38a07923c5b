package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func punchMessage(t *testing.T, offset int64, l device.RawLog) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(l)
	require.NoError(t, err)
	return kafkago.Message{Offset: offset, Key: []byte("zk-gate"), Value: body}
}

var ts = time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)

func TestBatchSource_Pull(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{
		punchMessage(t, 1, device.RawLog{DeviceUserID: "101", Timestamp: ts}),
		{Offset: 2, Value: []byte("not json")},
		punchMessage(t, 3, device.RawLog{DeviceUserID: "102", Timestamp: ts, DeviceID: "zk-lobby"}),
		punchMessage(t, 4, device.RawLog{DeviceUserID: "103", Timestamp: ts}),
	}}
	src := NewBatchSource("kafka", reader, 3, 20*time.Millisecond)

	batch, err := src.Pull(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Logs, 2)
	assert.Equal(t, "zk-gate", batch.Logs[0].DeviceID)
	assert.Equal(t, "zk-lobby", batch.Logs[1].DeviceID)
	assert.Empty(t, reader.committed)

	require.NoError(t, batch.Ack(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)

	batch, err = src.Pull(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Logs, 1)

	batch, err = src.Pull(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Logs)
	assert.NoError(t, batch.Ack(context.Background()))
}

type recordingSync struct {
	device.SyncService
	mu   sync.Mutex
	logs []device.RawLog
}

func (s *recordingSync) Ingest(ctx context.Context, source string, logs []device.RawLog) (device.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, logs...)
	return device.SyncResult{Source: source, Received: len(logs), Processed: len(logs)}, nil
}

func (s *recordingSync) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func TestConsumePunches(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{
		punchMessage(t, 7, device.RawLog{DeviceUserID: "101", Timestamp: ts}),
		{Offset: 8, Value: []byte("{}")},
	}}
	ingest := &recordingSync{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		ConsumePunches(ctx, "kafka", reader, ingest)
		close(done)
	}()

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 1, ingest.count())
	assert.Equal(t, []int64{7, 8}, reader.committed)
}
