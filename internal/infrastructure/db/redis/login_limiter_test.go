package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, maxFailures int64, window time.Duration) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewLoginLimiter(rdb, maxFailures, window), mr
}

func TestLoginLimiter_AllowsUnderBudget(t *testing.T) {
	limiter, _ := newLimiterTest(t, 3, time.Minute)
	ctx := context.Background()

	ok, err := limiter.Allowed(ctx, "alice")
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if !ok {
		t.Fatalf("fresh identifier should be allowed")
	}

	for i := 0; i < 2; i++ {
		if err := limiter.RecordFailure(ctx, "alice"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	ok, err = limiter.Allowed(ctx, "alice")
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if !ok {
		t.Fatalf("identifier under budget should be allowed")
	}
}

func TestLoginLimiter_BlocksOverBudget(t *testing.T) {
	limiter, _ := newLimiterTest(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.RecordFailure(ctx, "bob"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	ok, err := limiter.Allowed(ctx, "bob")
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if ok {
		t.Fatalf("identifier over budget should be blocked")
	}

	// other identifiers are unaffected
	ok, err = limiter.Allowed(ctx, "carol")
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if !ok {
		t.Fatalf("unrelated identifier should be allowed")
	}
}

func TestLoginLimiter_ResetClearsBudget(t *testing.T) {
	limiter, _ := newLimiterTest(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.RecordFailure(ctx, "dave"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if ok, _ := limiter.Allowed(ctx, "dave"); ok {
		t.Fatalf("expected block after failure")
	}

	if err := limiter.Reset(ctx, "dave"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ok, _ := limiter.Allowed(ctx, "dave"); !ok {
		t.Fatalf("expected allow after reset")
	}
}

func TestLoginLimiter_WindowExpires(t *testing.T) {
	limiter, mr := newLimiterTest(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.RecordFailure(ctx, "erin"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if ok, _ := limiter.Allowed(ctx, "erin"); ok {
		t.Fatalf("expected block inside window")
	}

	mr.FastForward(2 * time.Minute)

	if ok, _ := limiter.Allowed(ctx, "erin"); !ok {
		t.Fatalf("expected allow after window expiry")
	}
}
