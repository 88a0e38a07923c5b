package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	Create(ctx context.Context, h Holiday) (Holiday, error)
	Delete(ctx context.Context, id string) error
	GetByDate(ctx context.Context, day time.Time) (Holiday, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
}
