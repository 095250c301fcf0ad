package stream

import (
	"math/rand"
	"time"
)

// BackoffPolicy is the exponential-backoff-plus-jitter policy of spec.md
// §4.4 and §6: initial=50ms, multiplier=2, max=30s, jitter=[0,50]ms.
type BackoffPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     time.Duration
}

// DefaultBackoffPolicy returns the spec-mandated defaults.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Initial:    50 * time.Millisecond,
		Multiplier: 2,
		Max:        30 * time.Second,
		Jitter:     50 * time.Millisecond,
	}
}

// Delay computes the backoff delay for the given zero-based attempt
// number, including uniform jitter in [0, Jitter].
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(p.Initial)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
		if time.Duration(d) >= p.Max {
			d = float64(p.Max)
			break
		}
	}
	delay := time.Duration(d)
	if delay > p.Max {
		delay = p.Max
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter) + 1))
	}
	return delay
}
