package interrupt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livepush/audio"
	"github.com/opd-ai/livepush/event"
	"github.com/opd-ai/livepush/reconnect"
	"github.com/opd-ai/livepush/signal"
	"github.com/opd-ai/livepush/stream"
	"github.com/opd-ai/livepush/transport"
)

// Config holds the coordinator's timeout surface.
type Config struct {
	// PhoneCallTimeout is how long a phone-call interruption may last
	// before the stream is stopped for good.
	PhoneCallTimeout time.Duration
	// NetworkTimeout is how long a network interruption may last before
	// the stream is stopped for good.
	NetworkTimeout time.Duration
	// ProactiveRecoveryDelay is the re-check delay armed when the network
	// already reports available at the instant a network interruption
	// begins (the "lost" trigger was stale).
	ProactiveRecoveryDelay time.Duration
}

// DefaultConfig returns the standard timeout surface.
func DefaultConfig() Config {
	return Config{
		PhoneCallTimeout:       30 * time.Second,
		NetworkTimeout:         30 * time.Second,
		ProactiveRecoveryDelay: time.Second,
	}
}

// Coordinator is the interruption arbiter.
//
// It owns the current interruption Source, the network-loss-during-call
// flag, the single armed interruption timer, and the bound Session. One
// mutex serializes every entry point: signal handlers, timer fires,
// transport callbacks, and shutdown. It implements signal.PhoneHandler,
// signal.NetworkHandler, and transport.Callbacks.
type Coordinator struct {
	machine *stream.Machine
	trans   transport.Transport
	phone   signal.PhoneSignal
	network signal.NetworkSignal
	emitter event.Emitter
	engine  *audio.Engine
	recon   *reconnect.Manager
	cfg     Config

	mu                sync.Mutex
	tp                TimeProvider
	source            Source
	netLostDuringCall bool
	session           *stream.Session
	pendingResume     Source

	timer    Timer
	timerGen uint64

	recheckTimer Timer
	recheckGen   uint64

	emitMu  sync.Mutex
	pending []event.Event
}

// NewCoordinator creates the coordinator and wires nothing: the caller
// registers it as the handler on the signals and the transport.
func NewCoordinator(machine *stream.Machine, trans transport.Transport, phone signal.PhoneSignal, network signal.NetworkSignal, emitter event.Emitter, engine *audio.Engine, recon *reconnect.Manager, cfg Config) (*Coordinator, error) {
	if machine == nil {
		return nil, errors.New("state machine cannot be nil")
	}
	if trans == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if phone == nil {
		return nil, errors.New("phone signal cannot be nil")
	}
	if network == nil {
		return nil, errors.New("network signal cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("event emitter cannot be nil")
	}
	if engine == nil {
		return nil, errors.New("audio engine cannot be nil")
	}
	if recon == nil {
		return nil, errors.New("reconnection manager cannot be nil")
	}
	if cfg.PhoneCallTimeout <= 0 {
		cfg.PhoneCallTimeout = 30 * time.Second
	}
	if cfg.NetworkTimeout <= 0 {
		cfg.NetworkTimeout = 30 * time.Second
	}
	if cfg.ProactiveRecoveryDelay <= 0 {
		cfg.ProactiveRecoveryDelay = time.Second
	}

	return &Coordinator{
		machine: machine,
		trans:   trans,
		phone:   phone,
		network: network,
		emitter: emitter,
		engine:  engine,
		recon:   recon,
		cfg:     cfg,
		tp:      RealTimeProvider{},
	}, nil
}

// SetTimeProvider replaces the clock for deterministic testing.
func (c *Coordinator) SetTimeProvider(tp TimeProvider) {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tp = tp
}

// Source returns the current interruption source.
func (c *Coordinator) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// BindSession attaches the active session. Called by the facade on start.
func (c *Coordinator) BindSession(sess *stream.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
}

// Session returns the bound session, or nil.
func (c *Coordinator) Session() *stream.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ClearSession drops the bound session. Used as the reconnection manager's
// terminal hook and by the facade on stop.
func (c *Coordinator) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

// CallBegan handles a phone call becoming active. A phone call always
// pre-empts a network interruption; the reverse never happens.
func (c *Coordinator) CallBegan() {
	c.mu.Lock()

	switch c.source {
	case SourcePhoneCall:
		logrus.WithFields(logrus.Fields{
			"function": "CallBegan",
		}).Warn("Duplicate call-began signal, ignoring")

	case SourceNetwork:
		// Pre-empt the network interruption: same interrupted state, new
		// owner, fresh timer. No second network_interrupted is emitted.
		// The machine is Interrupted here; a network interruption that
		// resolved into Reconnecting already cleared the source, so a call
		// during network reconnection enters through the default branch.
		c.cancelTimerLocked()
		c.cancelRecheckLocked()
		c.source = SourcePhoneCall
		c.pendingResume = SourceNone
		c.machine.Transition(stream.Interrupted)
		c.armTimerLocked(SourcePhoneCall)
		c.queueLocked(event.TypeAudioInterrupted,
			"Phone call started during network interruption")
		logrus.WithFields(logrus.Fields{
			"function": "CallBegan",
			"from":     SourceNetwork.String(),
		}).Info("Phone call pre-empted network interruption")

	default:
		st := c.machine.Current()
		if st == stream.Streaming || st == stream.Connecting || st == stream.Reconnecting {
			c.beginInterruptionLocked(SourcePhoneCall)
		} else {
			logrus.WithFields(logrus.Fields{
				"function": "CallBegan",
				"state":    st.String(),
			}).Debug("Call began outside an active session, ignoring")
		}
	}

	c.mu.Unlock()
	c.flush()
}

// CallEnded resolves a phone-call interruption.
func (c *Coordinator) CallEnded() {
	c.mu.Lock()

	if c.source != SourcePhoneCall {
		logrus.WithFields(logrus.Fields{
			"function": "CallEnded",
			"source":   c.source.String(),
		}).Warn("Stale call-ended signal, ignoring")
		c.mu.Unlock()
		return
	}

	if c.netLostDuringCall {
		// The flag is consumed exactly once, and never trusted alone: the
		// live network state decides what happens next.
		c.netLostDuringCall = false
		if !c.network.IsAvailable() {
			c.cancelTimerLocked()
			c.source = SourceNetwork
			c.armTimerLocked(SourceNetwork)
			c.queueLocked(event.TypeNetworkInterrupted,
				"Network still unavailable after call ended")
			logrus.WithFields(logrus.Fields{
				"function": "CallEnded",
			}).Info("Call ended but network is down, switching interruption source")
			c.mu.Unlock()
			c.flush()
			return
		}
	}

	after := c.resolveLocked(SourcePhoneCall)
	c.mu.Unlock()
	c.flush()
	after()
}

// NetworkLost handles connectivity loss.
func (c *Coordinator) NetworkLost() {
	c.mu.Lock()

	switch c.source {
	case SourcePhoneCall:
		// Phone call owns the interruption; just remember the loss for
		// call-end resolution.
		c.netLostDuringCall = true
		logrus.WithFields(logrus.Fields{
			"function": "NetworkLost",
		}).Debug("Network lost during phone call, flag recorded")

	case SourceNetwork:
		logrus.WithFields(logrus.Fields{
			"function": "NetworkLost",
		}).Warn("Duplicate network-lost signal, ignoring")

	default:
		st := c.machine.Current()
		if st == stream.Streaming || st == stream.Connecting || st == stream.Reconnecting {
			c.beginInterruptionLocked(SourceNetwork)
		} else {
			logrus.WithFields(logrus.Fields{
				"function": "NetworkLost",
				"state":    st.String(),
			}).Debug("Network lost outside an active session, ignoring")
		}
	}

	c.mu.Unlock()
	c.flush()
}

// NetworkAvailable resolves a network interruption.
func (c *Coordinator) NetworkAvailable() {
	c.mu.Lock()

	if c.source == SourcePhoneCall {
		if c.netLostDuringCall {
			c.netLostDuringCall = false
			logrus.WithFields(logrus.Fields{
				"function": "NetworkAvailable",
			}).Debug("Network recovered during phone call, flag cleared")
		}
		c.mu.Unlock()
		return
	}
	if c.source != SourceNetwork {
		logrus.WithFields(logrus.Fields{
			"function": "NetworkAvailable",
			"source":   c.source.String(),
		}).Debug("Stale network-available signal, ignoring")
		c.mu.Unlock()
		return
	}

	after := c.resolveLocked(SourceNetwork)
	c.mu.Unlock()
	after()
}

// OnConnectSuccess validates an asynchronous connect success against the
// current lifecycle state before acting. A success arriving in any state
// other than Connecting or Reconnecting is stale: the transport is
// force-closed and nothing else happens. This is the zombie-prevention
// guard.
func (c *Coordinator) OnConnectSuccess() {
	c.mu.Lock()

	st := c.machine.Current()
	if st != stream.Connecting && st != stream.Reconnecting {
		logrus.WithFields(logrus.Fields{
			"function": "OnConnectSuccess",
			"state":    st.String(),
		}).Warn("Stale connect success, force-closing transport")
		c.trans.Stop()
		c.mu.Unlock()
		return
	}

	c.machine.Transition(stream.Streaming)
	sess := c.session
	resume := c.pendingResume
	c.pendingResume = SourceNone
	switch resume {
	case SourcePhoneCall:
		c.queueLocked(event.TypeAudioResumed, "Streaming resumed after phone call")
	case SourceNetwork:
		c.queueLocked(event.TypeNetworkResumed, "Streaming resumed after network recovery")
	}
	c.mu.Unlock()

	c.recon.ResetRetryCount(sess)
	logrus.WithFields(logrus.Fields{
		"function": "OnConnectSuccess",
		"resumed":  resume.String(),
	}).Info("Publish connection established")
	c.flush()
}

// OnConnectFailed classifies an asynchronous connection failure. A
// network-related failure during steady streaming re-enters the
// interruption path; anything else retryable goes to the reconnection
// manager's bounded retry. Failures while an interruption owns the session
// are expected fallout of our own transport stop and are discarded.
func (c *Coordinator) OnConnectFailed(err error) {
	c.mu.Lock()

	if c.source != SourceNone {
		logrus.WithFields(logrus.Fields{
			"function": "OnConnectFailed",
			"source":   c.source.String(),
			"error":    fmt.Sprint(err),
		}).Debug("Connect failure during interruption, discarding")
		c.mu.Unlock()
		return
	}
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return
	}

	st := c.machine.Current()
	if transport.IsNetworkRelated(err) && st == stream.Streaming {
		logrus.WithFields(logrus.Fields{
			"function": "OnConnectFailed",
			"error":    err.Error(),
		}).Info("Network-classified failure while streaming, entering interruption")
		c.beginInterruptionLocked(SourceNetwork)
		c.mu.Unlock()
		c.flush()
		return
	}

	switch st {
	case stream.Streaming:
		// Retry runs under Reconnecting so the success guard stays exact.
		c.machine.Transition(stream.Reconnecting)
		st = stream.Reconnecting
	case stream.Connecting, stream.Reconnecting:
	default:
		logrus.WithFields(logrus.Fields{
			"function": "OnConnectFailed",
			"state":    st.String(),
		}).Debug("Connect failure in inactive state, discarding")
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.recon.HandleConnectFailed(sess, err, st)
}

// OnClosed is informational: every close in this design is either commanded
// by the coordinator or accompanied by a connect failure.
func (c *Coordinator) OnClosed() {
	logrus.WithFields(logrus.Fields{
		"function": "OnClosed",
	}).Debug("Transport reported connection closed")
}

// Shutdown is the unconditional cancellation path behind the facade's Stop:
// timers cancelled, in-flight reconnection aborted, transport force-closed,
// audio released, session dropped, lifecycle parked at Idle. Completes in
// bounded time and never waits on network I/O.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.cancelTimerLocked()
	c.cancelRecheckLocked()
	c.source = SourceNone
	c.netLostDuringCall = false
	c.pendingResume = SourceNone
	c.session = nil
	c.recon.Cancel()
	c.trans.Stop()
	c.engine.Release()

	if st := c.machine.Current(); st != stream.Idle {
		if !c.machine.Transition(stream.Idle) {
			// Connecting has no direct edge to Idle; walk through Failed.
			c.machine.Transition(stream.Failed)
			c.machine.Transition(stream.Idle)
		}
	}
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Shutdown",
	}).Info("Coordinator shut down, session cleared")
}

// beginInterruptionLocked closes the transport, releases the audio
// resource, takes ownership of the interruption, and arms the per-source
// timer. Caller holds the mutex and has verified the lifecycle state.
func (c *Coordinator) beginInterruptionLocked(src Source) {
	if c.machine.Current() == stream.Reconnecting {
		c.recon.Cancel()
	}
	c.trans.Stop()
	c.engine.Release()
	c.source = src
	c.netLostDuringCall = false
	c.pendingResume = SourceNone
	c.machine.Transition(stream.Interrupted)
	c.armTimerLocked(src)

	switch src {
	case SourcePhoneCall:
		c.queueLocked(event.TypeAudioInterrupted, "Streaming interrupted by phone call")
	case SourceNetwork:
		c.queueLocked(event.TypeNetworkInterrupted, "Streaming interrupted by network loss")
		if c.network.IsAvailable() {
			// The "lost" trigger may already be stale; re-check shortly
			// instead of burning the full timeout.
			c.armRecheckLocked()
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "beginInterruptionLocked",
		"source":   src.String(),
		"timeout":  c.timeoutFor(src),
	}).Info("Interruption began")
}

// resolveLocked ends the interruption owned by src and hands off to the
// reconnection manager. Returns the work to run after the mutex is
// released.
func (c *Coordinator) resolveLocked(src Source) func() {
	c.cancelTimerLocked()
	c.cancelRecheckLocked()
	c.source = SourceNone
	c.pendingResume = src
	c.machine.Transition(stream.Reconnecting)
	sess := c.session

	logrus.WithFields(logrus.Fields{
		"function": "resolveLocked",
		"source":   src.String(),
	}).Info("Interruption ended, reconnecting")

	return func() {
		if sess != nil {
			c.recon.Attempt(sess)
		}
	}
}

// timerFired is the interruption deadline. A stale generation or a source
// mismatch means the interruption already resolved or switched owners.
func (c *Coordinator) timerFired(gen uint64, src Source) {
	c.mu.Lock()
	if gen != c.timerGen || c.source != src {
		logrus.WithFields(logrus.Fields{
			"function": "timerFired",
			"source":   src.String(),
		}).Debug("Stale interruption timer, ignoring")
		c.mu.Unlock()
		return
	}

	c.timer = nil
	c.cancelRecheckLocked()
	c.recon.Cancel()
	c.trans.Stop()
	c.engine.Release()
	c.source = SourceNone
	c.netLostDuringCall = false
	c.pendingResume = SourceNone
	c.session = nil
	c.machine.Transition(stream.Failed)
	c.queueLocked(event.TypeStopped,
		fmt.Sprintf("Stream stopped: prolonged %s interruption", src))
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "timerFired",
		"source":   src.String(),
	}).Error("Interruption timed out, stream stopped")
	c.flush()
}

// recheckFired is the proactive-recovery probe for a possibly stale
// network-lost trigger.
func (c *Coordinator) recheckFired(gen uint64) {
	c.mu.Lock()
	if gen != c.recheckGen || c.source != SourceNetwork {
		c.mu.Unlock()
		return
	}
	c.recheckTimer = nil
	if !c.network.IsAvailable() {
		c.mu.Unlock()
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "recheckFired",
	}).Info("Network reports available on re-check, recovering early")
	after := c.resolveLocked(SourceNetwork)
	c.mu.Unlock()
	after()
}

// armTimerLocked cancels any armed timer and arms a fresh full-length one
// for src, atomically with respect to the coordinator's critical section.
func (c *Coordinator) armTimerLocked(src Source) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = c.tp.AfterFunc(c.timeoutFor(src), func() {
		c.timerFired(gen, src)
	})
}

func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Coordinator) armRecheckLocked() {
	if c.recheckTimer != nil {
		c.recheckTimer.Stop()
	}
	c.recheckGen++
	gen := c.recheckGen
	c.recheckTimer = c.tp.AfterFunc(c.cfg.ProactiveRecoveryDelay, func() {
		c.recheckFired(gen)
	})
}

func (c *Coordinator) cancelRecheckLocked() {
	if c.recheckTimer != nil {
		c.recheckTimer.Stop()
		c.recheckTimer = nil
	}
	c.recheckGen++
}

func (c *Coordinator) timeoutFor(src Source) time.Duration {
	if src == SourcePhoneCall {
		return c.cfg.PhoneCallTimeout
	}
	return c.cfg.NetworkTimeout
}

// queueLocked appends a notification to the emission queue. Caller holds the
// mutex, so queue order is critical-section order.
func (c *Coordinator) queueLocked(t event.Type, msg string) {
	c.pending = append(c.pending, event.Event{Type: t, Message: msg, At: c.tp.Now()})
}

// flush drains the emission queue in order. emitMu serializes drainers so
// events queued by racing entry points are always delivered in the order
// their critical sections ran.
func (c *Coordinator) flush() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	for {
		c.mu.Lock()
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, evt := range pending {
			c.emitter.Emit(evt)
		}
	}
}
