package ports

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

// RegisterInput carries the fields required to create an account. Avatar and
// cover image are already-uploaded media URLs; the service stores them as-is.
type RegisterInput struct {
	FullName      string
	Username      string
	Email         string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID, url string) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, userID, url string) (*domain.User, error)
}
