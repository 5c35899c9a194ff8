package repository

import (
	"context"

	"github.com/pk46/tasker/internal/domain"
)

// UserRepository exposes the identity lookups the auth core depends on.
// Absence is signalled with pgx.ErrNoRows by implementations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}
