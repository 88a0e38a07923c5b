package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type holidayRepository struct {
	s *Store
}

func NewHolidayRepository(s *Store) holiday.HolidayRepository {
	return &holidayRepository{s: s}
}

func (r *holidayRepository) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	day := h.Date.Format(timeutil.DateLayout)
	for _, existing := range r.s.data.holidays {
		if existing.Date.Format(timeutil.DateLayout) == day {
			return holiday.Holiday{}, holiday.ErrHolidayDateExists
		}
	}
	if h.ID == "" {
		h.ID = newID()
	}
	h.CreatedAt = r.s.now()
	r.s.data.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.holidays[id]; !ok {
		return holiday.ErrHolidayNotFound
	}
	delete(r.s.data.holidays, id)
	return nil
}

func (r *holidayRepository) GetByDate(ctx context.Context, day time.Time) (holiday.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	key := day.Format(timeutil.DateLayout)
	for _, h := range r.s.data.holidays {
		if h.Date.Format(timeutil.DateLayout) == key {
			return h, nil
		}
	}
	return holiday.Holiday{}, holiday.ErrHolidayNotFound
}

func (r *holidayRepository) ListByRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []holiday.Holiday{}
	for _, h := range r.s.data.holidays {
		if !h.Date.Before(from) && h.Date.Before(to) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type leaveApplicationRepository struct {
	s *Store
}

func NewLeaveApplicationRepository(s *Store) leave.ApplicationRepository {
	return &leaveApplicationRepository{s: s}
}

func (r *leaveApplicationRepository) ListApprovedHalfDays(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []leave.Application{}
	for _, a := range r.s.data.leaveApps {
		if a.EmployeeID != employeeID || !a.IsHalfDay || a.Status != leave.ApplicationApproved {
			continue
		}
		if !a.StartDate.Before(from) && a.StartDate.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}
