package database

import "context"

// Transactor runs fn as one unit of work. Repositories called with the ctx
// passed to fn take part in the same transaction; if fn returns an error
// nothing fn wrote is kept. Nested calls join the outer unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
