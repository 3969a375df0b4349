package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 10 * 24 * time.Hour
)

// TokenConfig holds the signing secrets and lifetimes for both token kinds.
// Access and refresh tokens are signed with distinct secrets.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService issues, rotates, and invalidates the access/refresh token pair
// bound to a user. The authoritative refresh token lives on the user record:
// exactly one per user, so a second login supersedes the first and a rotated
// token is unusable the moment its replacement is stored. The read-compare-
// overwrite sequence in Refresh is not atomic against a concurrent refresh
// with the same token; storage-level conditional updates would be required
// for strict single-use rotation.
type TokenService struct {
	repo   ports.UserRepository
	cfg    TokenConfig
	logger zerolog.Logger
}

func NewTokenService(repo ports.UserRepository, cfg TokenConfig, logger zerolog.Logger) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{repo: repo, cfg: cfg, logger: logger}
}

// Issue mints a fresh token pair for the user and persists the refresh half.
// A failure to load the user or store the token is fatal for the request;
// no partial issuance is ever returned.
func (s *TokenService) Issue(ctx context.Context, userID string) (*ports.TokenPair, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.signRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.repo.UpdateFields(ctx, user.ID, ports.UserUpdate{RefreshToken: &refreshToken}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &ports.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Authenticate resolves the identifier against username or email and checks
// the password. Unknown identifier and wrong password are distinct failures
// so the transport layer can keep 404 and 401 apart.
func (s *TokenService) Authenticate(ctx context.Context, identifier, password string) (string, error) {
	if identifier == "" || password == "" {
		return "", domain.ErrMissingFields
	}

	user, err := s.repo.FindByUsernameOrEmail(ctx, normalize(identifier), normalize(identifier))
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	return user.ID, nil
}

// Refresh verifies a presented refresh token, compares it byte-for-byte with
// the stored value, and on match rotates the pair via Issue. A mismatch means
// the token was already rotated or revoked; the session is terminally invalid.
func (s *TokenService) Refresh(ctx context.Context, presented string) (*ports.TokenPair, error) {
	if presented == "" {
		return nil, domain.ErrInvalidToken
	}

	userID, err := s.verifyRefreshToken(presented)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		s.logger.Warn().Str("user_id", user.ID).Msg("refresh token mismatch, session revoked or rotated")
		return nil, domain.ErrInvalidToken
	}

	return s.Issue(ctx, user.ID)
}

// Invalidate clears the stored refresh token. Idempotent: invalidating a user
// with no active session succeeds.
func (s *TokenService) Invalidate(ctx context.Context, userID string) error {
	if err := s.repo.UpdateFields(ctx, userID, ports.UserUpdate{ClearRefreshToken: true}); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

func (s *TokenService) signAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.AccessSecret))
}

// signRefreshToken carries only the user id plus a jti, so two tokens minted
// within the same second are still distinct strings.
func (s *TokenService) signRefreshToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.RefreshTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.RefreshSecret))
}

func (s *TokenService) verifyRefreshToken(presented string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(presented, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.cfg.RefreshSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", domain.ErrInvalidToken
	}
	return userID, nil
}
