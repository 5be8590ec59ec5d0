package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBackoffDelay(t *testing.T) {
	b := &Backoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, 100*time.Millisecond, b.Delay(1))
	assert.Equal(t, 200*time.Millisecond, b.Delay(2))
	assert.Equal(t, 400*time.Millisecond, b.Delay(3))
	assert.Equal(t, 800*time.Millisecond, b.Delay(4))
	// Capped at MaxDelay from here on.
	assert.Equal(t, time.Second, b.Delay(5))
	assert.Equal(t, time.Second, b.Delay(10))
}

func TestBackoffDisabled(t *testing.T) {
	var b *Backoff
	assert.Zero(t, b.Delay(1))

	assert.Zero(t, (&Backoff{}).Delay(1))
	assert.Zero(t, (&Backoff{InitialDelay: time.Second}).Delay(0))
}

func TestBackoffJitterBounds(t *testing.T) {
	b := DefaultBackoff()

	rapid.Check(t, func(rt *rapid.T) {
		attempt := rapid.IntRange(1, 10).Draw(rt, "attempt")
		d := b.Delay(attempt)
		// Never below the initial delay, never above MaxDelay plus the
		// 25% jitter band.
		assert.GreaterOrEqual(rt, d, b.InitialDelay)
		assert.LessOrEqual(rt, d, b.MaxDelay+b.MaxDelay/4)
	})
}
