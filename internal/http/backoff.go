package http

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Backoff computes exponential delays with symmetric jitter.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64

	mu   sync.Mutex
	rand *rand.Rand
}

// NewBackoff returns a Backoff. Non-positive delays fall back to one second
// and thirty seconds.
func NewBackoff(base, maxDelay time.Duration, jitter float64) *Backoff {
	if base <= 0 {
		base = time.Second
	}

	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	if maxDelay < base {
		maxDelay = base
	}

	if jitter < 0 {
		jitter = 0
	}

	return &Backoff{
		BaseDelay: base,
		MaxDelay:  maxDelay,
		Jitter:    jitter,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
	}
}

// ForAttempt returns the delay after the given zero-indexed failed attempt.
// The result never exceeds MaxDelay.
func (b *Backoff) ForAttempt(attempt int) time.Duration {
	delay := b.BaseDelay

	if attempt > 0 {
		if attempt > 32 {
			attempt = 32
		}

		delay = time.Duration(float64(b.BaseDelay) * math.Pow(2, float64(attempt)))
	}

	if delay <= 0 || delay > b.MaxDelay {
		delay = b.MaxDelay
	}

	delay = b.addJitter(delay)
	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}

	return delay
}

func (b *Backoff) addJitter(delay time.Duration) time.Duration {
	if b.Jitter == 0 || delay <= 0 {
		return delay
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rand == nil {
		b.rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}

	factor := 1 + (b.rand.Float64()*2-1)*math.Min(b.Jitter, 1)
	if factor < 0 {
		factor = 0
	}

	return time.Duration(float64(delay) * factor)
}
