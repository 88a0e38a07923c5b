package late

import (
	"context"
	"time"
)

type Filter struct {
	EmployeeID *string
	Status     *Status
	From       *time.Time
	To         *time.Time
}

type LateRepository interface {
	// Create fails with ErrLateAlreadyFiled when the attendance already has an event.
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)
	List(ctx context.Context, filter Filter) ([]Event, error)
	// ListByEmployeeAndRange returns non-rejected events in [from, to) ordered by date.
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]Event, error)
	CountByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) (int, error)
	Update(ctx context.Context, event Event) (Event, error)
	Delete(ctx context.Context, id string) error
}

type PolicyRepository interface {
	// Get fails with ErrPolicyNotFound when no policy row exists yet.
	Get(ctx context.Context) (Policy, error)
	Save(ctx context.Context, policy Policy) (Policy, error)
}
