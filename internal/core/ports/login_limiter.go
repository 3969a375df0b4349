package ports

import "context"

// LoginLimiter throttles repeated failed logins per identifier.
type LoginLimiter interface {
	// Allowed reports whether the identifier is still under the failure budget.
	Allowed(ctx context.Context, identifier string) (bool, error)
	// RecordFailure counts one failed attempt against the identifier.
	RecordFailure(ctx context.Context, identifier string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, identifier string) error
}
