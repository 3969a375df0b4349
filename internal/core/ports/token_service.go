package ports

import "context"

// TokenPair carries the two credentials minted on login or refresh. Only the
// refresh half is persisted, on the user record.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService manages the access/refresh token session bound to a user.
type TokenService interface {
	Issue(ctx context.Context, userID string) (*TokenPair, error)
	Authenticate(ctx context.Context, identifier, password string) (string, error)
	Refresh(ctx context.Context, presented string) (*TokenPair, error)
	Invalidate(ctx context.Context, userID string) error
}
