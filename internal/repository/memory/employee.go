package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

func (r *employeeRepository) GetByEmployeeCode(ctx context.Context, employeeCode string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.data.employees {
		if e.EmployeeCode == employeeCode {
			return cloneEmployee(e), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) GetByBiometricID(ctx context.Context, biometricID string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.data.employees {
		if e.BiometricID != nil && *e.BiometricID == biometricID {
			return cloneEmployee(e), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return r.list(true), nil
}

func (r *employeeRepository) ListAll(ctx context.Context) ([]employee.Employee, error) {
	return r.list(false), nil
}

func (r *employeeRepository) list(activeOnly bool) []employee.Employee {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]employee.Employee, 0, len(r.s.data.employees))
	for _, e := range r.s.data.employees {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, cloneEmployee(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out
}

func (r *employeeRepository) UpdateLeaveBalance(ctx context.Context, id string, balance leave.Balance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.LeaveBalance = balance.Clone()
	e.UpdatedAt = r.s.now()
	r.s.data.employees[id] = e
	return nil
}

func (r *employeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.IsActive = active
	e.UpdatedAt = r.s.now()
	r.s.data.employees[id] = e
	return nil
}

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) user.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsActive = active
	u.UpdatedAt = r.s.now()
	r.s.data.users[id] = u
	return nil
}
