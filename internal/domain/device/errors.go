package device

import "errors"

var (
	ErrSyncInProgress = errors.New("device sync already in progress")
	ErrEmptyBatch     = errors.New("no logs to ingest")
)
