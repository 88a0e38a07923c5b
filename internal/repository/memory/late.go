package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
)

type lateRepository struct {
	s *Store
}

func NewLateRepository(s *Store) late.LateRepository {
	return &lateRepository{s: s}
}

func (r *lateRepository) Create(ctx context.Context, event late.Event) (late.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.data.lates {
		if e.AttendanceID == event.AttendanceID {
			return late.Event{}, late.ErrLateAlreadyFiled
		}
	}
	if event.ID == "" {
		event.ID = newID()
	}
	event.CreatedAt = r.s.now()
	event.UpdatedAt = event.CreatedAt
	r.s.data.lates[event.ID] = event
	return event, nil
}

func (r *lateRepository) GetByID(ctx context.Context, id string) (late.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.data.lates[id]
	if !ok {
		return late.Event{}, late.ErrLateNotFound
	}
	return e, nil
}

func (r *lateRepository) List(ctx context.Context, filter late.Filter) ([]late.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []late.Event{}
	for _, e := range r.s.data.lates {
		if filter.EmployeeID != nil && e.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !e.Date.Before(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sortEvents(out)
	return out, nil
}

func (r *lateRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]late.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []late.Event{}
	for _, e := range r.s.data.lates {
		if e.EmployeeID == employeeID && e.Status != late.StatusRejected && !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (r *lateRepository) CountByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	events, err := r.ListByEmployeeAndRange(ctx, employeeID, from, to)
	return len(events), err
}

func (r *lateRepository) Update(ctx context.Context, event late.Event) (late.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.lates[event.ID]
	if !ok {
		return late.Event{}, late.ErrLateNotFound
	}
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = r.s.now()
	r.s.data.lates[event.ID] = event
	return event, nil
}

func (r *lateRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.lates[id]; !ok {
		return late.ErrLateNotFound
	}
	delete(r.s.data.lates, id)
	return nil
}

func sortEvents(events []late.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}

type policyRepository struct {
	s *Store
}

func NewPolicyRepository(s *Store) late.PolicyRepository {
	return &policyRepository{s: s}
}

func (r *policyRepository) Get(ctx context.Context) (late.Policy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.data.policy == nil {
		return late.Policy{}, late.ErrPolicyNotFound
	}
	return *r.s.data.policy, nil
}

func (r *policyRepository) Save(ctx context.Context, policy late.Policy) (late.Policy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	policy.UpdatedAt = r.s.now()
	r.s.data.policy = &policy
	return policy, nil
}
