package attendance

import (
	"context"
	"time"
)

type AttendanceService interface {
	// RecordPunch appends a punch to the employee's record for the punch's
	// local day and refreshes every derived field. A punch within 60 seconds
	// of an existing one is dropped and reported with Duplicate set.
	RecordPunch(ctx context.Context, req RecordPunchRequest) (PunchResult, error)
	CorrectPunches(ctx context.Context, req CorrectPunchesRequest) (Record, error)
	GetDay(ctx context.Context, req GetDayRequest) (Record, error)
	ListMonth(ctx context.Context, req MonthRequest) ([]Record, error)
	// MarkAbsent closes day for every active employee without a record.
	MarkAbsent(ctx context.Context, day time.Time) (MarkAbsentResult, error)
}
