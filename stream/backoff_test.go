package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffPolicyDelayGrowsExponentially(t *testing.T) {
	t.Parallel()
	p := BackoffPolicy{Initial: 10 * time.Millisecond, Multiplier: 2, Max: time.Second, Jitter: 0}

	assert.Equal(t, 10*time.Millisecond, p.Delay(0))
	assert.Equal(t, 20*time.Millisecond, p.Delay(1))
	assert.Equal(t, 40*time.Millisecond, p.Delay(2))
	assert.Equal(t, 80*time.Millisecond, p.Delay(3))
}

func TestBackoffPolicyDelayCapsAtMax(t *testing.T) {
	t.Parallel()
	p := BackoffPolicy{Initial: 10 * time.Millisecond, Multiplier: 2, Max: 50 * time.Millisecond, Jitter: 0}

	assert.Equal(t, 50*time.Millisecond, p.Delay(10))
}

func TestBackoffPolicyDelayJitterBounded(t *testing.T) {
	t.Parallel()
	p := BackoffPolicy{Initial: 10 * time.Millisecond, Multiplier: 2, Max: time.Second, Jitter: 5 * time.Millisecond}

	for i := 0; i < 50; i++ {
		d := p.Delay(0)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 15*time.Millisecond)
	}
}

func TestBackoffPolicyDelayNegativeAttemptTreatedAsZero(t *testing.T) {
	t.Parallel()
	p := BackoffPolicy{Initial: 10 * time.Millisecond, Multiplier: 2, Max: time.Second, Jitter: 0}

	assert.Equal(t, p.Delay(0), p.Delay(-5))
}

func TestDefaultBackoffPolicyMatchesSpec(t *testing.T) {
	t.Parallel()
	p := DefaultBackoffPolicy()
	assert.Equal(t, 50*time.Millisecond, p.Initial)
	assert.Equal(t, float64(2), p.Multiplier)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 50*time.Millisecond, p.Jitter)
}
