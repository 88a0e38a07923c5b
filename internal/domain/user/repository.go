package user

import "context"

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	SetActive(ctx context.Context, id string, active bool) error
}
