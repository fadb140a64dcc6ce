package redcap

import (
	"context"
	"time"
)

// rateLimiter implements token-bucket rate limiting so bulk pulls stay
// within a REDCap server's request budget. Tokens refill on a fixed tick;
// Wait blocks until a token or context cancellation.
type rateLimiter struct {
	tokens chan struct{}
	done   chan struct{}
}

func newRateLimiter(perSecond float64) *rateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}

	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	rl := &rateLimiter{
		tokens: make(chan struct{}, burst),
		done:   make(chan struct{}),
	}

	// Fill initial tokens
	for i := 0; i < burst; i++ {
		rl.tokens <- struct{}{}
	}

	interval := time.Duration(float64(time.Second) / perSecond)
	go rl.refill(interval)

	return rl
}

func (rl *rateLimiter) refill(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case rl.tokens <- struct{}{}:
			default:
			}
		case <-rl.done:
			return
		}
	}
}

// Wait blocks until a request token is available.
func (rl *rateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the refill goroutine.
func (rl *rateLimiter) Close() {
	close(rl.done)
}
