package users

import "context"

// Repository persists users. Lookups that find nothing return
// common.ErrorNotFound; Create returns common.ErrorAlreadyExists for a taken
// email.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hashedPassword string) error
}
