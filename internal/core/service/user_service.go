package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

// UserService implements account registration and profile maintenance.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// normalize lowercases an identifier so username and email lookups are
// case-insensitive end to end.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(input.FullName) == "" ||
		strings.TrimSpace(input.Username) == "" ||
		strings.TrimSpace(input.Email) == "" ||
		input.Password == "" {
		return nil, domain.ErrMissingFields
	}

	username := normalize(input.Username)
	email := normalize(input.Email)

	if _, err := s.repo.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, domain.ErrUserExists
	} else if err != domain.ErrUserNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(input.FullName),
		AvatarURL:     input.AvatarURL,
		CoverImageURL: input.CoverImageURL,
		PasswordHash:  string(hash),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// ChangePassword verifies the old password before storing a new hash. Only
// the password field is written; nothing else on the document is revalidated.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.ErrMissingFields
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	hashStr := string(hash)
	if err := s.repo.UpdateFields(ctx, userID, ports.UserUpdate{PasswordHash: &hashStr}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return nil, domain.ErrMissingFields
	}

	fullName = strings.TrimSpace(fullName)
	email = normalize(email)
	update := ports.UserUpdate{FullName: &fullName, Email: &email}
	if err := s.repo.UpdateFields(ctx, userID, update); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID, url string) (*domain.User, error) {
	if url == "" {
		return nil, domain.ErrMissingFields
	}
	if err := s.repo.UpdateFields(ctx, userID, ports.UserUpdate{AvatarURL: &url}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID, url string) (*domain.User, error) {
	if url == "" {
		return nil, domain.ErrMissingFields
	}
	if err := s.repo.UpdateFields(ctx, userID, ports.UserUpdate{CoverImageURL: &url}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}
