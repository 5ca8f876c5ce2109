package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDevice simulates a capture device that may be held by the OS for a
// while before opening succeeds.
type mockDevice struct {
	mu       sync.Mutex
	openErrs []error
	opens    int
	closes   int
}

func (d *mockDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if len(d.openErrs) > 0 {
		err := d.openErrs[0]
		d.openErrs = d.openErrs[1:]
		return err
	}
	return nil
}

func (d *mockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

func (d *mockDevice) counts() (opens, closes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens, d.closes
}

func TestNewEngineRequiresDevice(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestEngineAcquireRelease(t *testing.T) {
	dev := &mockDevice{}
	engine, err := NewEngine(dev)
	require.NoError(t, err)

	require.NoError(t, engine.Acquire(context.Background()))
	assert.True(t, engine.Acquired())

	engine.Release()
	assert.False(t, engine.Acquired())

	opens, closes := dev.counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes)
}

func TestEngineAcquireIdempotent(t *testing.T) {
	dev := &mockDevice{}
	engine, err := NewEngine(dev)
	require.NoError(t, err)

	require.NoError(t, engine.Acquire(context.Background()))
	require.NoError(t, engine.Acquire(context.Background()))

	opens, _ := dev.counts()
	assert.Equal(t, 1, opens, "second acquire must be a no-op")
}

func TestEngineAcquireRetriesWhileBusy(t *testing.T) {
	// The OS may not release the device immediately after a call ends.
	dev := &mockDevice{openErrs: []error{ErrDeviceBusy, ErrDeviceBusy}}
	engine, err := NewEngine(dev)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, engine.Acquire(context.Background()))
	elapsed := time.Since(start)

	opens, _ := dev.counts()
	assert.Equal(t, 3, opens)
	assert.True(t, engine.Acquired())
	// Two busy responses cost at least the 50ms + 100ms backoff steps.
	assert.GreaterOrEqual(t, elapsed, 140*time.Millisecond)
}

func TestEngineAcquirePermanentError(t *testing.T) {
	dev := &mockDevice{openErrs: []error{errors.New("device not found")}}
	engine, err := NewEngine(dev)
	require.NoError(t, err)

	err = engine.Acquire(context.Background())
	require.Error(t, err)
	assert.False(t, engine.Acquired())

	opens, _ := dev.counts()
	assert.Equal(t, 1, opens, "non-busy errors must not be retried")
}

func TestEngineAcquireHonorsContext(t *testing.T) {
	dev := &mockDevice{openErrs: []error{
		ErrDeviceBusy, ErrDeviceBusy, ErrDeviceBusy, ErrDeviceBusy, ErrDeviceBusy, ErrDeviceBusy,
	}}
	engine, err := NewEngine(dev)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err = engine.Acquire(ctx)
	require.Error(t, err)
	assert.False(t, engine.Acquired())
}

func TestEngineReleaseWithoutAcquire(t *testing.T) {
	dev := &mockDevice{}
	engine, err := NewEngine(dev)
	require.NoError(t, err)

	engine.Release()
	_, closes := dev.counts()
	assert.Zero(t, closes)
}
