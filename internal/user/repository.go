package user

import "context"

type Repository interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}
