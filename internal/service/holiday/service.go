package holiday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type HolidayServiceImpl struct {
	holidayRepo holiday.HolidayRepository
	weekend     map[time.Weekday]bool
	loc         *time.Location
}

func NewHolidayService(holidayRepo holiday.HolidayRepository, weekend []time.Weekday, loc *time.Location) *HolidayServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[time.Weekday]bool, len(weekend))
	for _, d := range weekend {
		days[d] = true
	}
	return &HolidayServiceImpl{holidayRepo: holidayRepo, weekend: days, loc: loc}
}

func (s *HolidayServiceImpl) CreateHoliday(ctx context.Context, req holiday.CreateHolidayRequest) (holiday.Holiday, error) {
	if err := req.Validate(); err != nil {
		return holiday.Holiday{}, err
	}

	date, err := time.ParseInLocation(timeutil.DateLayout, req.Date, s.loc)
	if err != nil {
		return holiday.Holiday{}, fmt.Errorf("failed to parse holiday date: %w", err)
	}
	h := holiday.Holiday{
		Name:   req.Name,
		Date:   date,
		Type:   holiday.Type(req.Type),
		IsPaid: true,
	}
	if req.IsPaid != nil {
		h.IsPaid = *req.IsPaid
	}

	created, err := s.holidayRepo.Create(ctx, h)
	if err != nil {
		return holiday.Holiday{}, err
	}
	slog.Info("Holiday created", "holiday_id", created.ID, "date", req.Date, "name", created.Name)
	return created, nil
}

func (s *HolidayServiceImpl) DeleteHoliday(ctx context.Context, id string) error {
	return s.holidayRepo.Delete(ctx, id)
}

func (s *HolidayServiceImpl) ListHolidays(ctx context.Context, year int) ([]holiday.Holiday, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	return s.holidayRepo.ListByRange(ctx, from, from.AddDate(1, 0, 0))
}

// Classify implements holiday.HolidayService. A registered holiday wins over
// a weekend.
func (s *HolidayServiceImpl) Classify(ctx context.Context, day time.Time) (holiday.DayKind, error) {
	day = timeutil.LocalCalendarDay(day, s.loc)

	_, err := s.holidayRepo.GetByDate(ctx, day)
	switch {
	case err == nil:
		return holiday.DayHoliday, nil
	case !errors.Is(err, holiday.ErrHolidayNotFound):
		return "", fmt.Errorf("failed to look up holiday: %w", err)
	}

	if s.weekend[day.Weekday()] {
		return holiday.DayWeekend, nil
	}
	return holiday.DayWorking, nil
}
