package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left in the window, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return ((wait + time.Second - 1) / time.Second) * time.Second
}

// Limiter allows Limit hits per key per fixed Window. The window starts at the
// first hit for a key.
type Limiter struct {
	Name   string
	Store  Store
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

func (l *Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow counts a hit for key. On a store error the returned Decision allows the
// request and the error is returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	open := Decision{Allowed: true, Limit: l.Limit, Remaining: l.Limit, ResetAt: now.Add(l.Window)}

	count, err := l.Store.Increment(ctx, key)
	if err != nil {
		return open, err
	}

	ttl := l.Window
	if count == 1 {
		if err := l.Store.Expire(ctx, key, l.Window); err != nil {
			return open, err
		}
	} else {
		_, remaining, err := l.Store.Get(ctx, key)
		if err != nil {
			return open, err
		}
		if remaining > 0 {
			ttl = remaining
		} else if err := l.Store.Expire(ctx, key, l.Window); err != nil {
			// a counter left without expiry would block the key forever
			return open, err
		}
	}

	remaining := l.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.Limit),
		Limit:     l.Limit,
		Remaining: remaining,
		ResetAt:   now.Add(ttl),
	}, nil
}

// SearchLimit guards the score and search routes: 30 requests per minute.
func SearchLimit(store Store) *Limiter {
	return &Limiter{Name: "search", Store: store, Limit: 30, Window: time.Minute}
}

// AuthLimit is 5 attempts per 15 minutes, keyed by email via AuthKey.
func AuthLimit(store Store) *Limiter {
	return &Limiter{Name: "auth", Store: store, Limit: 5, Window: 15 * time.Minute}
}
