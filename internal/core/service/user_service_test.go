package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

func TestUserService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		FullName:  "Alice Liddell",
		Username:  "Alice",
		Email:     "Alice@Example.com",
		Password:  "pass123",
		AvatarURL: "https://cdn.example.com/a.png",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased identifiers, got %q %q", user.Username, user.Email)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.AvatarURL != "https://cdn.example.com/a.png" {
		t.Fatalf("avatar url not stored: %q", user.AvatarURL)
	}
}

func TestUserService_Register_MissingFields(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())

	cases := []ports.RegisterInput{
		{Username: "bob", Email: "bob@example.com", Password: "p"},
		{FullName: "Bob", Email: "bob@example.com", Password: "p"},
		{FullName: "Bob", Username: "bob", Password: "p"},
		{FullName: "Bob", Username: "bob", Email: "bob@example.com"},
	}
	for _, input := range cases {
		if _, err := svc.Register(context.Background(), input); err != domain.ErrMissingFields {
			t.Fatalf("expected ErrMissingFields for %+v, got %v", input, err)
		}
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())

	input := ports.RegisterInput{FullName: "Bob", Username: "bob", Email: "bob@example.com", Password: "p1"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}

	// same email, different username
	input.Username = "bobby"
	if _, err := svc.Register(context.Background(), input); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	u := registerTestUser(t, repo, "carol", "carol@example.com", "oldpass")
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, u.ID, "wrong", "newpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "oldpass", "newpass"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	tokens := NewTokenService(repo, testTokenConfig(), zerolog.Nop())
	if _, err := tokens.Authenticate(ctx, "carol", "oldpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password should no longer verify, got %v", err)
	}
	if _, err := tokens.Authenticate(ctx, "carol", "newpass"); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}
}

func TestUserService_UpdateAccount(t *testing.T) {
	repo := newStubUserRepo()
	u := registerTestUser(t, repo, "dave", "dave@example.com", "pass")
	svc := NewUserService(repo, zerolog.Nop())

	updated, err := svc.UpdateAccount(context.Background(), u.ID, "Dave Grohl", "Dave@NewMail.com")
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if updated.FullName != "Dave Grohl" || updated.Email != "dave@newmail.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	if _, err := svc.UpdateAccount(context.Background(), u.ID, "", ""); err != domain.ErrMissingFields {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestUserService_UpdateAvatarAndCover(t *testing.T) {
	repo := newStubUserRepo()
	u := registerTestUser(t, repo, "erin", "erin@example.com", "pass")
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()

	updated, err := svc.UpdateAvatar(ctx, u.ID, "https://cdn.example.com/new-avatar.png")
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if updated.AvatarURL != "https://cdn.example.com/new-avatar.png" {
		t.Fatalf("avatar not updated: %q", updated.AvatarURL)
	}

	updated, err = svc.UpdateCoverImage(ctx, u.ID, "https://cdn.example.com/cover.png")
	if err != nil {
		t.Fatalf("update cover: %v", err)
	}
	if updated.CoverImageURL != "https://cdn.example.com/cover.png" {
		t.Fatalf("cover not updated: %q", updated.CoverImageURL)
	}

	if _, err := svc.UpdateAvatar(ctx, u.ID, ""); err != domain.ErrMissingFields {
		t.Fatalf("expected ErrMissingFields for empty url, got %v", err)
	}
}

func TestUserService_CurrentUser_NotFound(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())

	if _, err := svc.CurrentUser(context.Background(), "missing"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
