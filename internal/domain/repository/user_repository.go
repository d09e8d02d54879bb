package repository

import (
	"context"

	"github.com/oksasatya/devconnector/internal/domain/entity"
)

// UserRepository defines the interface for identity persistence.
type UserRepository interface {
	// Create inserts a new user; ErrDuplicate when the email is taken.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	// Delete removes the identity record; ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}
