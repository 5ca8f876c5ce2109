package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pion/opus"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livepush/transport"
)

// ErrDeviceBusy is returned by Device.Open while the OS still holds the
// capture resource, typically right after a phone call released it.
// Acquire retries on this error and treats everything else as permanent.
var ErrDeviceBusy = errors.New("audio device busy")

// Device is the platform capture resource collaborator.
type Device interface {
	// Open claims the exclusive capture resource.
	Open() error
	// Close releases the resource. Idempotent.
	Close() error
}

const (
	acquireInitialInterval = 50 * time.Millisecond
	acquireMaxInterval     = 800 * time.Millisecond
	acquireMaxTries        = 6
)

// Engine owns the acquire/release lifecycle of the audio device and the
// encoder settings derived from the configured parameters.
type Engine struct {
	device Device

	mu        sync.Mutex
	acquired  bool
	params    transport.Params
	bandwidth opus.Bandwidth
}

// NewEngine creates an engine over the given device.
func NewEngine(device Device) (*Engine, error) {
	if device == nil {
		return nil, errors.New("audio device cannot be nil")
	}
	return &Engine{device: device}, nil
}

// Configure validates the encoder parameters and records the Opus settings
// derived from them. Rejected parameters leave the previous configuration in
// place. Runs before every transport prepare, so reconnection always
// re-prepares with the original encoding parameters.
func (e *Engine) Configure(p transport.Params) error {
	if err := ValidateParams(p); err != nil {
		return err
	}
	bw := BandwidthForSampleRate(p.SampleRateHz)

	e.mu.Lock()
	e.params = p
	e.bandwidth = bw
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "Configure",
		"sample_rate": p.SampleRateHz,
		"bitrate":     p.BitrateKbps,
		"stereo":      p.Stereo,
	}).Debug("Encoder parameters configured")
	return nil
}

// Bandwidth returns the Opus bandwidth derived from the configured sample
// rate.
func (e *Engine) Bandwidth() opus.Bandwidth {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bandwidth
}

// Acquired reports whether the engine currently holds the device.
func (e *Engine) Acquired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acquired
}

// Acquire claims the device, retrying with 50ms doubling backoff while the
// device reports busy. Acquiring an already-held device is a no-op.
func (e *Engine) Acquire(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acquired {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "Acquire",
	}).Debug("Acquiring exclusive audio resource")

	open := func() (struct{}, error) {
		err := e.device.Open()
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, ErrDeviceBusy) {
			logrus.WithFields(logrus.Fields{
				"function": "Acquire",
				"error":    err.Error(),
			}).Debug("Audio device busy, retrying")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = acquireInitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = acquireMaxInterval
	b.Reset()

	if _, err := backoff.Retry(ctx, open, backoff.WithBackOff(b), backoff.WithMaxTries(acquireMaxTries)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Acquire",
			"error":    err.Error(),
		}).Error("Failed to acquire audio resource")
		return fmt.Errorf("acquire audio resource: %w", err)
	}

	e.acquired = true
	logrus.WithFields(logrus.Fields{
		"function": "Acquire",
	}).Info("Exclusive audio resource acquired")
	return nil
}

// Release returns the device to the OS. Safe to call when not held.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.acquired {
		return
	}
	if err := e.device.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Release",
			"error":    err.Error(),
		}).Warn("Audio device close reported an error")
	}
	e.acquired = false
	logrus.WithFields(logrus.Fields{
		"function": "Release",
	}).Debug("Exclusive audio resource released")
}
