package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(failures, successes int) (*Breaker, *clock) {
	c := &clock{t: time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)}
	b := New("attempts-kafka",
		WithFailureThreshold(failures),
		WithSuccessThreshold(successes),
		WithCooldown(30*time.Second),
		WithClock(c.now),
	)
	return b, c
}

func failN(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("attempts-kafka")
	assert.Equal(t, "attempts-kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerOpening(t *testing.T) {
	tests := []struct {
		name     string
		record   func(b *Breaker)
		wantOpen bool
	}{
		{
			name:     "below threshold stays closed",
			record:   func(b *Breaker) { failN(b, 2) },
			wantOpen: false,
		},
		{
			name:     "threshold reached opens",
			record:   func(b *Breaker) { failN(b, 3) },
			wantOpen: true,
		},
		{
			name: "a success in between restarts the count",
			record: func(b *Breaker) {
				failN(b, 2)
				b.RecordSuccess()
				failN(b, 2)
			},
			wantOpen: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(3, 1)
			tt.record(b)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsTransitionsOnce(t *testing.T) {
	b, _ := newTestBreaker(2, 1)

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.False(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback, "still open")
	assert.False(t, change.Opened, "no second transition")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
}

func TestBreakerNeedsConsecutiveSuccessesToClose(t *testing.T) {
	b, _ := newTestBreaker(1, 2)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordFailure()
	b.RecordSuccess()
	assert.True(t, b.IsOpen(), "the failure restarted the success run")

	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}

func TestBreakerProbesOncePerCooldown(t *testing.T) {
	b, c := newTestBreaker(1, 1)
	b.RecordFailure()

	assert.False(t, b.Allow(), "writes are held back while cooling down")
	c.advance(29 * time.Second)
	assert.False(t, b.Allow())

	c.advance(time.Second)
	assert.True(t, b.Allow(), "one probe after the cooldown")
	assert.False(t, b.Allow())

	b.RecordFailure()
	c.advance(30 * time.Second)
	assert.True(t, b.Allow(), "a failed probe waits another cooldown")
}

func TestBreakerReset(t *testing.T) {
	b, _ := newTestBreaker(1, 3)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}
