package late

import "context"

// PolicyProvider returns the current policy, default-initialised if absent.
type PolicyProvider interface {
	GetPolicy(ctx context.Context) (Policy, error)
}

type LateService interface {
	PolicyProvider
	UpdatePolicy(ctx context.Context, req UpdatePolicyRequest) (Policy, error)

	FileLate(ctx context.Context, req FileLateRequest) (Event, error)
	GetLate(ctx context.Context, id string) (Event, error)
	ListLates(ctx context.Context, req ListLatesRequest) ([]Event, error)
	SetLateStatus(ctx context.Context, req SetStatusRequest) (Event, error)
	DeleteLate(ctx context.Context, id string) error

	// ResolveMonth gathers the month's events and half-days for the employee
	// and runs the resolver against the opening balance of the policy's leave
	// bucket. It does not write anything.
	ResolveMonth(ctx context.Context, req ResolveMonthRequest) (MonthInput, Resolution, error)
}

// MonthInput is what ResolveMonth fed to the resolver.
type MonthInput struct {
	Events   []Event   `json:"events"`
	HalfDays []HalfDay `json:"half_days"`
}
