package server

import (
	"testing"
	"time"
)

func TestLoginRateLimiterBlocksAfterMaxFailures(t *testing.T) {
	limiter := newLoginRateLimiter(3, time.Minute, 5*time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !limiter.Allow("alice|127.0.0.1", now) {
			t.Fatalf("attempt %d blocked too early", i)
		}
		limiter.RegisterFailure("alice|127.0.0.1", now)
	}

	if limiter.Allow("alice|127.0.0.1", now) {
		t.Fatal("expected block after max failures")
	}

	// Other keys are unaffected.
	if !limiter.Allow("bob|127.0.0.1", now) {
		t.Fatal("unrelated key blocked")
	}
}

func TestLoginRateLimiterUnblocksAfterWindow(t *testing.T) {
	limiter := newLoginRateLimiter(2, time.Minute, 5*time.Minute)
	now := time.Now()

	limiter.RegisterFailure("alice|h", now)
	limiter.RegisterFailure("alice|h", now)
	if limiter.Allow("alice|h", now) {
		t.Fatal("expected block")
	}

	if !limiter.Allow("alice|h", now.Add(5*time.Minute+time.Second)) {
		t.Fatal("expected unblock after block duration")
	}
}

func TestLoginRateLimiterFailureWindowExpires(t *testing.T) {
	limiter := newLoginRateLimiter(2, time.Minute, 5*time.Minute)
	now := time.Now()

	limiter.RegisterFailure("alice|h", now)
	// The second failure lands outside the window and starts a fresh count.
	limiter.RegisterFailure("alice|h", now.Add(2*time.Minute))
	if !limiter.Allow("alice|h", now.Add(2*time.Minute)) {
		t.Fatal("stale failures must not accumulate")
	}
}

func TestLoginRateLimiterReset(t *testing.T) {
	limiter := newLoginRateLimiter(1, time.Minute, 5*time.Minute)
	now := time.Now()

	limiter.RegisterFailure("alice|h", now)
	if limiter.Allow("alice|h", now) {
		t.Fatal("expected block")
	}

	limiter.Reset("alice|h")
	if !limiter.Allow("alice|h", now) {
		t.Fatal("expected allow after reset")
	}
}

func TestLoginRateLimiterNilSafe(t *testing.T) {
	var limiter *loginRateLimiter
	if !limiter.Allow("alice|h", time.Now()) {
		t.Fatal("nil limiter must allow everything")
	}
	limiter.RegisterFailure("alice|h", time.Now())
	limiter.Reset("alice|h")
}
