package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock steps time manually for deterministic debounce tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestDebouncer(window time.Duration) (*Debouncer, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	d := NewDebouncer(window)
	d.SetNowFunc(clock.Now)
	return d, clock
}

func TestDebouncerFirstObservationDelivered(t *testing.T) {
	d, _ := newTestDebouncer(200 * time.Millisecond)
	assert.True(t, d.Allow(true))
}

func TestDebouncerSuppressesRepeats(t *testing.T) {
	d, clock := newTestDebouncer(200 * time.Millisecond)
	assert.True(t, d.Allow(true))

	clock.advance(time.Second)
	assert.False(t, d.Allow(true), "same-state repeat must be dropped")
	assert.False(t, d.Allow(true))
}

func TestDebouncerSuppressesFlapInsideWindow(t *testing.T) {
	d, clock := newTestDebouncer(200 * time.Millisecond)
	assert.True(t, d.Allow(true))

	clock.advance(50 * time.Millisecond)
	assert.False(t, d.Allow(false), "flip inside the window must be dropped")
}

func TestDebouncerDeliversFlipAfterWindow(t *testing.T) {
	d, clock := newTestDebouncer(200 * time.Millisecond)
	assert.True(t, d.Allow(true))

	clock.advance(300 * time.Millisecond)
	assert.True(t, d.Allow(false))

	clock.advance(300 * time.Millisecond)
	assert.True(t, d.Allow(true))
}

func TestDebouncerDefaultWindow(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, DefaultDebounceWindow, d.window)
}
