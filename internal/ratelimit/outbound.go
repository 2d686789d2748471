package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/craftline/salesdesk/internal/config"
)

const (
	keyProviderBucket = "outbound:%s"
	keySubmitLock     = "orders:submit:%s"

	submitLockTTL = 30 * time.Second
	maxWait       = 5 * time.Second
)

// OutboundLimiter throttles calls to external collaborators and guards
// order submission against concurrent duplicates. When no redis address
// is configured the limiter is disabled and every call passes through.
type OutboundLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	providerRates map[string]float64
}

func NewOutboundLimiter(cfg config.Config) *OutboundLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &OutboundLimiter{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	return &OutboundLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		providerRates: map[string]float64{
			"delhivery": cfg.Delhivery.RequestsPerSecond,
		},
	}
}

func (l *OutboundLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Wait blocks until a token for the provider is available, the budget
// maxWait is spent, or ctx is done. Redis failures let the call through
// rather than blocking outbound traffic on the limiter.
func (l *OutboundLimiter) Wait(ctx context.Context, provider string) error {
	if !l.Enabled() {
		return nil
	}
	rate, ok := l.providerRates[provider]
	if !ok || rate <= 0 {
		return nil
	}

	key := fmt.Sprintf(keyProviderBucket, provider)
	burst := int(rate)
	if burst < 1 {
		burst = 1
	}

	deadline := time.Now().Add(maxWait)
	for {
		res, err := l.bucket.Allow(ctx, key, rate, burst)
		if err != nil {
			return nil
		}
		if res.Allowed {
			return nil
		}
		if time.Now().Add(res.RetryAfter).After(deadline) {
			return fmt.Errorf("rate limit budget exhausted for %s", provider)
		}

		timer := time.NewTimer(res.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryLockSubmission claims the submission slot for an order. The second
// return is false when another submission holds it.
func (l *OutboundLimiter) TryLockSubmission(ctx context.Context, orderKey string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keySubmitLock, strings.TrimSpace(orderKey)), submitLockTTL)
}

func (l *OutboundLimiter) ReleaseSubmission(ctx context.Context, orderKey, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keySubmitLock, strings.TrimSpace(orderKey)), token)
}
