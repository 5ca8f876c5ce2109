package interrupt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/livepush/event"
	"github.com/opd-ai/livepush/stream"
)

func TestNetworkTimeoutStopsStream(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.NetworkTimeout = 2 * time.Second
	f := newFixture(t, cfg)
	f.toStreaming(t)

	f.coord.NetworkLost()
	require.Equal(t, stream.Interrupted, f.machine.Current())

	f.clock.Advance(2 * time.Second)

	assert.Equal(t, stream.Failed, f.machine.Current())
	assert.Equal(t, SourceNone, f.coord.Source())
	assert.Nil(t, f.coord.Session(), "timed-out session must be dropped")
	require.Equal(t, 1, f.emitter.count(event.TypeStopped))
}

func TestPhoneTimeoutStopsStream(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.PhoneCallTimeout = 3 * time.Second
	f := newFixture(t, cfg)
	f.toStreaming(t)

	f.coord.CallBegan()
	f.clock.Advance(3 * time.Second)

	assert.Equal(t, stream.Failed, f.machine.Current())
	assert.Equal(t, 1, f.emitter.count(event.TypeStopped))
}

func TestTimeoutIsIdempotent(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.PhoneCallTimeout = time.Second
	f := newFixture(t, cfg)
	f.toStreaming(t)

	f.coord.CallBegan()
	f.clock.Advance(time.Second)
	require.Equal(t, stream.Failed, f.machine.Current())

	// Signals arriving after the deadline fired must change nothing.
	f.coord.CallEnded()
	f.coord.NetworkAvailable()

	assert.Equal(t, stream.Failed, f.machine.Current())
	assert.Equal(t, 1, f.emitter.count(event.TypeStopped))
	assert.Zero(t, f.emitter.count(event.TypeAudioResumed))
}

func TestCancelledTimerNeverFires(t *testing.T) {
	f := newFixture(t, defaultTestConfig())
	f.toStreaming(t)

	f.coord.NetworkLost()
	f.network.setAvailable(true)
	f.coord.NetworkAvailable()
	require.Equal(t, stream.Reconnecting, f.machine.Current())

	// The deadline of the cancelled timer passes without effect.
	f.clock.Advance(time.Minute)

	assert.NotEqual(t, stream.Failed, f.machine.Current())
	assert.Zero(t, f.emitter.count(event.TypeStopped))
}

func TestSourceSwitchInvalidatesOldDeadline(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.PhoneCallTimeout = 10 * time.Second
	cfg.NetworkTimeout = 4 * time.Second
	f := newFixture(t, cfg)
	f.toStreaming(t)

	f.coord.NetworkLost()
	f.clock.Advance(2 * time.Second)
	f.coord.CallBegan()

	// The original network deadline (t+4s) passes while the phone call
	// owns the interruption.
	f.clock.Advance(3 * time.Second)
	assert.Equal(t, stream.Interrupted, f.machine.Current())
	assert.Zero(t, f.emitter.count(event.TypeStopped))

	// The phone deadline (armed at t+2s) fires at t+12s.
	f.clock.Advance(7 * time.Second)
	assert.Equal(t, stream.Failed, f.machine.Current())
	assert.Equal(t, 1, f.emitter.count(event.TypeStopped))
}

// TestRealClockTimeout runs the timeout against the wall clock to cover the
// default time provider path.
func TestRealClockTimeout(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.NetworkTimeout = 150 * time.Millisecond
	f := newFixture(t, cfg)
	f.coord.SetTimeProvider(nil) // back to the real clock
	f.toStreaming(t)

	f.coord.NetworkLost()

	require.Eventually(t, func() bool {
		return f.machine.Current() == stream.Failed
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, f.emitter.count(event.TypeStopped))
}
