// Package pacing provides the injectable rate limiters that gate
// provider calls. The orchestration code never sleeps on its own;
// every inter-request delay is owned by a Pacer so tests can swap in
// the zero pacer and run instantaneously.
package pacing

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	pkgredis "github.com/wonhee/tigerboard/pkg/redis"
)

// Pacer gates outgoing requests to one provider.
type Pacer interface {
	Wait(ctx context.Context) error
}

// None returns a pacer that never waits.
func None() Pacer {
	return noneP{}
}

type noneP struct{}

func (noneP) Wait(context.Context) error { return nil }

// TokenBucket is an in-process pacer over golang.org/x/time. Jitter
// adds a random extra delay on top of the bucket wait so concurrent
// workers don't fire in lockstep.
type TokenBucket struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

// NewTokenBucket creates a pacer allowing perSec events per second
// with the given burst. perSec <= 0 means unpaced.
func NewTokenBucket(perSec float64, burst int, jitter time.Duration) Pacer {
	if perSec <= 0 {
		return None()
	}
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		jitter:  jitter,
	}
}

// Wait blocks until the bucket grants a token, then applies jitter.
func (t *TokenBucket) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	if t.jitter > 0 {
		d := time.Duration(rand.Int63n(int64(t.jitter)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return nil
}

// Distributed binds a Redis sliding-window limiter to one provider's
// quota, for deployments where several processes share it.
type Distributed struct {
	limiter *pkgredis.RateLimiter
	cfg     pkgredis.RateLimitConfig
}

// NewDistributed creates a redis-backed pacer.
func NewDistributed(limiter *pkgredis.RateLimiter, cfg pkgredis.RateLimitConfig) Pacer {
	return &Distributed{limiter: limiter, cfg: cfg}
}

// Wait blocks until the shared window admits a request.
func (d *Distributed) Wait(ctx context.Context) error {
	return d.limiter.Wait(ctx, d.cfg)
}
