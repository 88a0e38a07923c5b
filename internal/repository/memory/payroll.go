package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type payrollRepository struct {
	s *Store
}

func NewPayrollRepository(s *Store) payroll.PayrollRepository {
	return &payrollRepository{s: s}
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Snapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snap, ok := r.s.data.payrolls[id]
	if !ok {
		return payroll.Snapshot{}, payroll.ErrPayrollNotFound
	}
	return cloneSnapshot(snap), nil
}

func (r *payrollRepository) GetByEmployeeMonth(ctx context.Context, employeeID string, month timeutil.Month) (payroll.Snapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, snap := range r.s.data.payrolls {
		if snap.EmployeeID == employeeID && snap.Month == month {
			return cloneSnapshot(snap), nil
		}
	}
	return payroll.Snapshot{}, payroll.ErrPayrollNotFound
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Snapshot, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := []payroll.Snapshot{}
	for _, snap := range r.s.data.payrolls {
		if filter.Month != nil && snap.Month != *filter.Month {
			continue
		}
		if filter.Status != nil && snap.Status != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && snap.EmployeeID != *filter.EmployeeID {
			continue
		}
		all = append(all, cloneSnapshot(snap))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Month != all[j].Month {
			return all[i].Month.String() > all[j].Month.String()
		}
		return all[i].EmployeeID < all[j].EmployeeID
	})

	total := int64(len(all))
	if filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start < 0 {
			start = 0
		}
		if start > len(all) {
			start = len(all)
		}
		end := start + filter.Limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (r *payrollRepository) Save(ctx context.Context, snap payroll.Snapshot) (payroll.Snapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, existing := range r.s.data.payrolls {
		if existing.EmployeeID == snap.EmployeeID && existing.Month == snap.Month {
			snap.ID = id
			snap.CreatedAt = existing.CreatedAt
		}
	}
	if snap.ID == "" {
		snap.ID = newID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = r.s.now()
	}
	snap.UpdatedAt = r.s.now()

	r.s.data.payrolls[snap.ID] = cloneSnapshot(snap)
	return cloneSnapshot(snap), nil
}
