// Package lockout throttles password guessing: repeated failed logins for the
// same email and client address lock that pair out for a while.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "radar/pkg/domain-errors"
	"radar/pkg/requestcontext"
)

var lockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "radar_login_lockouts_total",
	Help: "Email and address pairs locked out after repeated login failures",
})

// Store counts failures and holds locks. Counters and locks expire on their own.
type Store interface {
	// RecordFailure adds one failure to key and returns the count inside the
	// current window. The window starts at the first failure.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// LockedFor returns how long key stays locked, or zero.
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	// Lock locks key for d and resets its failure count.
	Lock(ctx context.Context, key string, d time.Duration) error
	Clear(ctx context.Context, key string) error
}

// Policy bounds failures per window and the lock that follows.
type Policy struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultPolicy allows five failures in fifteen minutes.
var DefaultPolicy = Policy{MaxFailures: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}

type Guard struct {
	store  Store
	policy Policy
	logger *slog.Logger
}

type Option func(*Guard)

func WithPolicy(p Policy) Option {
	return func(g *Guard) {
		if p.MaxFailures > 0 && p.Window > 0 && p.LockDuration > 0 {
			g.policy = p
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func New(store Store, opts ...Option) *Guard {
	g := &Guard{store: store, policy: DefaultPolicy, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key pairs the normalized email with the client address.
func Key(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Check fails with a too_many_requests error while the pair is locked.
func (g *Guard) Check(ctx context.Context, email, ip string) error {
	left, err := g.store.LockedFor(ctx, Key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if left > 0 {
		minutes := int(left.Round(time.Minute) / time.Minute)
		return dErrors.New(dErrors.CodeTooManyRequests,
			fmt.Sprintf("too many failed login attempts, try again in %d minute(s)", max(minutes, 1)))
	}
	return nil
}

// RecordFailure counts a failed login and locks the pair once the policy's
// limit is reached.
func (g *Guard) RecordFailure(ctx context.Context, email, ip string) error {
	key := Key(email, ip)
	n, err := g.store.RecordFailure(ctx, key, g.policy.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if n < g.policy.MaxFailures {
		return nil
	}
	if err := g.store.Lock(ctx, key, g.policy.LockDuration); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock login")
	}
	lockoutsTotal.Inc()
	g.logger.WarnContext(ctx, "login locked out",
		"failures", n,
		"locked_for", g.policy.LockDuration,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Clear forgets failures after a successful login.
func (g *Guard) Clear(ctx context.Context, email, ip string) error {
	if err := g.store.Clear(ctx, Key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}
