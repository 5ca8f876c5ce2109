package reconnect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livepush/audio"
	"github.com/opd-ai/livepush/event"
	"github.com/opd-ai/livepush/stream"
	"github.com/opd-ai/livepush/transport"
)

// Timer is a cancellable armed deadline.
type Timer interface {
	Stop() bool
}

// TimeProvider is an interface for getting the current time and arming
// timers. This allows injecting a mock time provider for deterministic
// testing of retry scheduling.
type TimeProvider interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealTimeProvider implements TimeProvider using the actual system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time { return time.Now() }

// AfterFunc arms a timer using the standard library.
func (RealTimeProvider) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config bounds the retry behavior.
type Config struct {
	// MaxRetries is how many connection retries are attempted before the
	// session fails terminally.
	MaxRetries int
	// BackoffBase is the exponential base: retry N waits base^N seconds.
	BackoffBase float64
	// AcquireTimeout bounds audio resource re-acquisition per attempt.
	AcquireTimeout time.Duration
}

// DefaultConfig returns the standard retry bounds.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		BackoffBase:    2.0,
		AcquireTimeout: 2 * time.Second,
	}
}

// Manager performs the clean-slate reconnection sequence and the bounded
// retry/backoff path for connection failures.
type Manager struct {
	machine  *stream.Machine
	trans    transport.Transport
	engine   *audio.Engine
	emitter  event.Emitter
	params   transport.Params
	cfg      Config
	tp       TimeProvider
	terminal func()

	mu         sync.Mutex
	gen        uint64
	retryTimer Timer
	boff       *backoff.ExponentialBackOff
}

// NewManager creates a reconnection manager.
func NewManager(machine *stream.Machine, trans transport.Transport, engine *audio.Engine, emitter event.Emitter, params transport.Params, cfg Config) (*Manager, error) {
	if machine == nil {
		return nil, errors.New("state machine cannot be nil")
	}
	if trans == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if engine == nil {
		return nil, errors.New("audio engine cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("event emitter cannot be nil")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 1 {
		cfg.BackoffBase = 2.0
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 2 * time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(cfg.BackoffBase * float64(time.Second))
	b.RandomizationFactor = 0
	b.Multiplier = cfg.BackoffBase
	b.MaxInterval = time.Hour
	b.Reset()

	return &Manager{
		machine: machine,
		trans:   trans,
		engine:  engine,
		emitter: emitter,
		params:  params,
		cfg:     cfg,
		tp:      RealTimeProvider{},
		boff:    b,
	}, nil
}

// SetTimeProvider replaces the clock for deterministic testing.
func (m *Manager) SetTimeProvider(tp TimeProvider) {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tp = tp
}

// SetTerminalHook registers a callback invoked when retries are exhausted or
// the sequence fails terminally, after the Failed transition.
func (m *Manager) SetTerminalHook(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminal = fn
}

// Attempt launches the clean-slate reconnection sequence for the session.
// The sequence runs in the background; the outcome surfaces through the
// transport's connect callbacks. Any previously scheduled retry is dropped.
func (m *Manager) Attempt(sess *stream.Session) {
	if sess == nil {
		return
	}
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.stopRetryTimerLocked()
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Attempt",
		"session_id": sess.ID,
		"url":        sess.URL,
	}).Info("Starting reconnection sequence")

	go m.runSequence(sess, gen, stream.Reconnecting)
}

// Cancel aborts any in-flight sequence and scheduled retry. In-flight steps
// notice through the generation check at their next gate.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.stopRetryTimerLocked()
}

// ResetRetryCount clears the session's retry budget and the backoff ladder.
// Called on every successful connect.
func (m *Manager) ResetRetryCount(sess *stream.Session) {
	if sess != nil {
		sess.ResetRetry()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boff.Reset()
}

// HandleConnectFailed consumes one retry for a connection failure and either
// schedules the next attempt or fails the session terminally. gate is the
// lifecycle state the retry must still find to proceed.
func (m *Manager) HandleConnectFailed(sess *stream.Session, cause error, gate stream.State) {
	if sess == nil {
		return
	}
	attempt := sess.IncrementRetry()

	if attempt > m.cfg.MaxRetries {
		logrus.WithFields(logrus.Fields{
			"function":    "HandleConnectFailed",
			"session_id":  sess.ID,
			"attempt":     attempt,
			"max_retries": m.cfg.MaxRetries,
		}).Error("Retry budget exhausted, failing session")
		m.failTerminal(fmt.Sprintf("Connection failed after %d retries: %v", m.cfg.MaxRetries, cause))
		return
	}

	m.mu.Lock()
	delay := m.boff.NextBackOff()
	gen := m.gen
	m.stopRetryTimerLocked()
	m.retryTimer = m.tp.AfterFunc(delay, func() {
		m.retryFired(sess, gen, gate)
	})
	now := m.tp.Now()
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "HandleConnectFailed",
		"session_id":  sess.ID,
		"attempt":     attempt,
		"delay":       delay,
		"gate_state":  gate.String(),
		"cause":       cause,
		"max_retries": m.cfg.MaxRetries,
	}).Warn("Connection failed, retry scheduled")

	m.emitter.Emit(event.Event{
		Type:    event.TypeRetry,
		Message: fmt.Sprintf("Retrying connection in %s (attempt %d of %d)", delay, attempt, m.cfg.MaxRetries),
		Attempt: attempt,
		At:      now,
	})
}

func (m *Manager) retryFired(sess *stream.Session, gen uint64, gate stream.State) {
	if !m.fresh(gen) {
		logrus.WithFields(logrus.Fields{
			"function":   "retryFired",
			"session_id": sess.ID,
		}).Debug("Retry timer superseded, dropping")
		return
	}
	m.runSequence(sess, gen, gate)
}

// runSequence executes stop -> re-acquire audio -> re-prepare -> start, with
// a freshness and state gate before every step. Only a gate mismatch aborts
// silently; resource and prepare failures fail the session terminally so the
// lifecycle always lands on Failed when the host receives a terminal error.
func (m *Manager) runSequence(sess *stream.Session, gen uint64, gate stream.State) {
	if !m.gated(gen, gate, "force-close") {
		return
	}
	m.trans.Stop()

	if !m.gated(gen, gate, "acquire-audio") {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.AcquireTimeout)
	err := m.engine.Acquire(ctx)
	cancel()
	if err != nil {
		m.emitError(fmt.Sprintf("Audio resource unavailable: %v", err))
		m.failAfterResourceError()
		return
	}

	if err := m.engine.Configure(m.params); err != nil {
		m.emitError(fmt.Sprintf("Encoder configuration rejected: %v", err))
		m.failAfterResourceError()
		return
	}

	if !m.gated(gen, gate, "prepare") {
		return
	}
	if err := m.trans.Prepare(m.params); err != nil {
		m.emitError(fmt.Sprintf("Transport prepare failed: %v", err))
		m.failAfterResourceError()
		return
	}

	if !m.gated(gen, gate, "start") {
		return
	}
	url := sess.PublishURL()
	logrus.WithFields(logrus.Fields{
		"function":   "runSequence",
		"session_id": sess.ID,
		"url":        url,
	}).Info("Issuing publish start")
	if err := m.trans.Start(url); err != nil {
		m.HandleConnectFailed(sess, err, gate)
	}
}

// gated reports whether the attempt generation is still current and the
// lifecycle is still in the expected state.
func (m *Manager) gated(gen uint64, gate stream.State, step string) bool {
	if !m.fresh(gen) {
		logrus.WithFields(logrus.Fields{
			"function": "gated",
			"step":     step,
		}).Debug("Reconnection attempt superseded, aborting")
		return false
	}
	if current := m.machine.Current(); current != gate {
		logrus.WithFields(logrus.Fields{
			"function": "gated",
			"step":     step,
			"expected": gate.String(),
			"current":  current.String(),
		}).Debug("Lifecycle moved on, aborting reconnection step")
		return false
	}
	return true
}

func (m *Manager) fresh(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

func (m *Manager) stopRetryTimerLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

func (m *Manager) failTerminal(msg string) {
	m.machine.Transition(stream.Failed)
	m.mu.Lock()
	terminal := m.terminal
	now := m.tp.Now()
	m.mu.Unlock()
	if terminal != nil {
		terminal()
	}
	m.emitter.Emit(event.Event{Type: event.TypeError, Message: msg, At: now})
}

func (m *Manager) failAfterResourceError() {
	m.machine.Transition(stream.Failed)
	m.mu.Lock()
	terminal := m.terminal
	m.mu.Unlock()
	if terminal != nil {
		terminal()
	}
}

func (m *Manager) emitError(msg string) {
	m.mu.Lock()
	now := m.tp.Now()
	m.mu.Unlock()
	logrus.WithFields(logrus.Fields{
		"function": "emitError",
		"message":  msg,
	}).Error("Reconnection error")
	m.emitter.Emit(event.Event{Type: event.TypeError, Message: msg, At: now})
}
