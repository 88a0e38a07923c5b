package holiday

import (
	"context"
	"time"
)

type HolidayService interface {
	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
	// Classify reports whether day is a working day, a weekend or a registered holiday.
	Classify(ctx context.Context, day time.Time) (DayKind, error)
}
