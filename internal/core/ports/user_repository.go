package ports

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

// UserUpdate describes a narrow partial update. Nil pointer fields are left
// untouched; ClearRefreshToken unsets the stored refresh token. The store
// applies only the named fields and must not re-run full-document validation.
type UserUpdate struct {
	FullName          *string
	Email             *string
	AvatarURL         *string
	CoverImageURL     *string
	PasswordHash      *string
	RefreshToken      *string
	ClearRefreshToken bool
}

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByUsernameOrEmail returns the first user whose username or email
	// matches. Either argument may be empty.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateFields(ctx context.Context, id string, update UserUpdate) error
}
