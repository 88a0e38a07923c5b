package device

import "context"

type SyncService interface {
	// Ingest records every log through the punch ledger. Per-log failures are
	// counted in the result, never returned.
	Ingest(ctx context.Context, source string, logs []RawLog) (SyncResult, error)
	// SyncAll pulls and ingests every registered source. A call made while a
	// previous one is still running fails with ErrSyncInProgress.
	SyncAll(ctx context.Context) ([]SyncResult, error)
}
