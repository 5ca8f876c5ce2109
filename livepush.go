package livepush

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livepush/audio"
	"github.com/opd-ai/livepush/event"
	"github.com/opd-ai/livepush/interrupt"
	"github.com/opd-ai/livepush/reconnect"
	"github.com/opd-ai/livepush/signal"
	"github.com/opd-ai/livepush/stream"
	"github.com/opd-ai/livepush/transport"
)

// Deps are the host-provided collaborators.
type Deps struct {
	// Transport is the streaming publish primitive.
	Transport transport.Transport
	// Phone reports phone-call edge events.
	Phone signal.PhoneSignal
	// Network reports connectivity edge events.
	Network signal.NetworkSignal
	// Emitter receives lifecycle notifications.
	Emitter event.Emitter
	// Device is the exclusive audio capture resource.
	Device audio.Device
}

func (d Deps) validate() error {
	if d.Transport == nil {
		return errors.New("transport cannot be nil")
	}
	if d.Phone == nil {
		return errors.New("phone signal cannot be nil")
	}
	if d.Network == nil {
		return errors.New("network signal cannot be nil")
	}
	if d.Emitter == nil {
		return errors.New("event emitter cannot be nil")
	}
	if d.Device == nil {
		return errors.New("audio device cannot be nil")
	}
	return nil
}

// Publisher is the host-facing facade over the session lifecycle.
//
// One Publisher manages one logical session at a time. All interruption and
// reconnection behavior runs autonomously once Start succeeds; the host only
// observes events and may call Stop at any moment.
type Publisher struct {
	opts   Options
	deps   Deps
	engine *audio.Engine

	machine *stream.Machine
	coord   *interrupt.Coordinator

	mu sync.Mutex
}

// New creates a Publisher and wires the collaborators: the coordinator
// becomes the handler for both signals and the transport's callbacks.
func New(opts *Options, deps Deps) (*Publisher, error) {
	logrus.WithFields(logrus.Fields{
		"function": "New",
	}).Info("Creating publisher instance")

	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	machine := stream.NewMachine()

	engine, err := audio.NewEngine(deps.Device)
	if err != nil {
		return nil, err
	}

	recon, err := reconnect.NewManager(machine, deps.Transport, engine, deps.Emitter, opts.Params, reconnect.Config{
		MaxRetries:  opts.MaxRetries,
		BackoffBase: opts.BackoffBase,
	})
	if err != nil {
		return nil, err
	}

	coord, err := interrupt.NewCoordinator(machine, deps.Transport, deps.Phone, deps.Network, deps.Emitter, engine, recon, interrupt.Config{
		PhoneCallTimeout:       opts.PhoneCallTimeout,
		NetworkTimeout:         opts.NetworkTimeout,
		ProactiveRecoveryDelay: opts.ProactiveRecoveryDelay,
	})
	if err != nil {
		return nil, err
	}

	recon.SetTerminalHook(coord.ClearSession)
	deps.Phone.SetHandler(coord)
	deps.Network.SetHandler(coord)
	deps.Transport.SetCallbacks(coord)

	logrus.WithFields(logrus.Fields{
		"function":           "New",
		"phone_call_timeout": opts.PhoneCallTimeout,
		"network_timeout":    opts.NetworkTimeout,
		"max_retries":        opts.MaxRetries,
	}).Info("Publisher created successfully")

	return &Publisher{
		opts:    *opts,
		deps:    deps,
		engine:  engine,
		machine: machine,
		coord:   coord,
	}, nil
}

// Start creates a session and begins publishing to url with the given
// stream name. It is rejected synchronously while a phone call is active
// and while another session exists. The connection outcome arrives
// asynchronously: Streaming on success, the retry path on failure.
func (p *Publisher) Start(url, streamName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if url == "" {
		return ErrInvalidURL
	}
	if p.deps.Phone.IsActive() {
		logrus.WithFields(logrus.Fields{
			"function": "Start",
		}).Warn("Start rejected, phone call active")
		return ErrCallActive
	}
	if st := p.machine.Current(); st != stream.Idle {
		logrus.WithFields(logrus.Fields{
			"function": "Start",
			"state":    st.String(),
		}).Warn("Start rejected, session already active")
		return ErrAlreadyStreaming
	}

	if err := p.engine.Configure(p.opts.Params); err != nil {
		return fmt.Errorf("invalid encoding parameters: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.engine.Acquire(ctx); err != nil {
		return err
	}

	if err := p.deps.Transport.Prepare(p.opts.Params); err != nil {
		p.engine.Release()
		return fmt.Errorf("transport prepare: %w", err)
	}

	sess := stream.NewSession(url, streamName)
	p.coord.BindSession(sess)
	p.machine.Transition(stream.Connecting)

	logrus.WithFields(logrus.Fields{
		"function":    "Start",
		"session_id":  sess.ID,
		"url":         url,
		"stream_name": streamName,
	}).Info("Session created, starting publish")

	if err := p.deps.Transport.Start(sess.PublishURL()); err != nil {
		p.deps.Transport.Stop()
		p.engine.Release()
		p.coord.ClearSession()
		p.machine.Transition(stream.Failed)
		p.machine.Transition(stream.Idle)
		return fmt.Errorf("start publish: %w", err)
	}
	return nil
}

// Stop ends the session unconditionally, regardless of current state: any
// armed interruption timer is cancelled, in-flight reconnection attempts
// are aborted, the transport is force-closed, and the lifecycle returns to
// Idle. Completes in bounded time.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coord.Shutdown()
}

// Mute silences outgoing audio without touching the session lifecycle.
func (p *Publisher) Mute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.coord.Session() == nil {
		return ErrNotStreaming
	}
	p.deps.Transport.Mute()
	return nil
}

// Unmute restores outgoing audio.
func (p *Publisher) Unmute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.coord.Session() == nil {
		return ErrNotStreaming
	}
	p.deps.Transport.Unmute()
	return nil
}

// State returns the current lifecycle state.
func (p *Publisher) State() stream.State {
	return p.machine.Current()
}

// Session returns the active session, or nil when none exists.
func (p *Publisher) Session() *stream.Session {
	return p.coord.Session()
}

// Subscribe registers an observer for lifecycle state changes.
func (p *Publisher) Subscribe(obs stream.Observer) {
	p.machine.Subscribe(obs)
}
