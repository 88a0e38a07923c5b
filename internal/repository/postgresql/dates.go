package postgresql

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

// DATE columns scan as UTC midnight; the domain works with local midnight.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// dateParam formats t as a DATE literal in its own location.
func dateParam(t time.Time) string {
	return t.Format(timeutil.DateLayout)
}
