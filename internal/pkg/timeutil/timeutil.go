package timeutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

var (
	ErrInvalidTimeFormat  = errors.New("invalid time format, expected HH:mm")
	ErrInvalidMonthFormat = errors.New("invalid month format, expected YYYY-MM")
)

// ParseHHMM splits a wall-clock "HH:mm" string into hour and minute.
func ParseHHMM(hhmm string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidTimeFormat
	}

	hour, ok := parseField(parts[0])
	if !ok || hour > 23 {
		return 0, 0, ErrInvalidTimeFormat
	}
	minute, ok = parseField(parts[1])
	if !ok || minute > 59 {
		return 0, 0, ErrInvalidTimeFormat
	}

	return hour, minute, nil
}

func parseField(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ShiftInstant returns the instant at wall-clock hhmm on referenceDay,
// in referenceDay's location.
func ShiftInstant(hhmm string, referenceDay time.Time) (time.Time, error) {
	hour, minute, err := ParseHHMM(hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", hhmm, err)
	}
	y, m, d := referenceDay.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, referenceDay.Location()), nil
}

// MinutesBetween returns floor((a - b) in minutes). The result may be negative.
func MinutesBetween(a, b time.Time) int {
	return int(math.Floor(a.Sub(b).Minutes()))
}

// LocalCalendarDay converts t to loc and truncates it to local midnight.
func LocalCalendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Month identifies a payroll period.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) (Month, error) {
	if year < 1970 || month < time.January || month > time.December {
		return Month{}, ErrInvalidMonthFormat
	}
	return Month{Year: year, Month: month}, nil
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, ErrInvalidMonthFormat
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time, loc *time.Location) Month {
	local := t.In(loc)
	return Month{Year: local.Year(), Month: local.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns local midnight of the first day of the month.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// End returns local midnight of the first day of the following month (exclusive).
func (m Month) End(loc *time.Location) time.Time {
	return m.Start(loc).AddDate(0, 1, 0)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
