package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
)

type attendanceRepository struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.data.attendance[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return cloneRecord(rec), nil
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, day time.Time) (attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.data.dayIndex[dayIndexKey(employeeID, day)]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return cloneRecord(r.s.data.attendance[id]), nil
}

func (r *attendanceRepository) Save(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dayIndexKey(rec.EmployeeID, rec.Date)
	if id, ok := r.s.data.dayIndex[key]; ok {
		existing := r.s.data.attendance[id]
		rec.ID = id
		rec.CreatedAt = existing.CreatedAt
	} else {
		if rec.ID == "" {
			rec.ID = newID()
		}
		rec.CreatedAt = r.s.now()
	}
	rec.UpdatedAt = r.s.now()

	r.s.data.attendance[rec.ID] = cloneRecord(rec)
	r.s.data.dayIndex[key] = rec.ID
	return cloneRecord(rec), nil
}

func (r *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []attendance.Record{}
	for _, rec := range r.s.data.attendance {
		if rec.EmployeeID == employeeID && !rec.Date.Before(from) && rec.Date.Before(to) {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *attendanceRepository) LockRange(ctx context.Context, employeeID string, from, to time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rec := range r.s.data.attendance {
		if rec.EmployeeID == employeeID && !rec.Date.Before(from) && rec.Date.Before(to) {
			rec.IsLocked = true
			rec.UpdatedAt = r.s.now()
			r.s.data.attendance[id] = rec
		}
	}
	return nil
}
