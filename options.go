package livepush

import (
	"fmt"
	"time"

	"github.com/opd-ai/livepush/transport"
)

// Options configures a Publisher.
type Options struct {
	// PhoneCallTimeout bounds how long a phone-call interruption may last
	// before the stream is stopped for good.
	PhoneCallTimeout time.Duration

	// NetworkTimeout bounds how long a network interruption may last
	// before the stream is stopped for good.
	NetworkTimeout time.Duration

	// ProactiveRecoveryDelay is the re-check delay used when a network
	// interruption begins while the network already reports available.
	ProactiveRecoveryDelay time.Duration

	// MaxRetries bounds connection retries before terminal failure.
	MaxRetries int

	// BackoffBase is the exponential retry base: retry N waits base^N seconds.
	BackoffBase float64

	// Params are the encoding parameters passed to the transport's Prepare.
	Params transport.Params
}

// NewOptions creates an Options with sensible defaults for mobile audio
// publishing.
func NewOptions() *Options {
	return &Options{
		PhoneCallTimeout:       30 * time.Second,
		NetworkTimeout:         30 * time.Second,
		ProactiveRecoveryDelay: time.Second,
		MaxRetries:             3,
		BackoffBase:            2.0,
		Params: transport.Params{
			BitrateKbps:     96,
			SampleRateHz:    44100,
			Stereo:          true,
			EchoCanceler:    true,
			NoiseSuppressor: true,
		},
	}
}

// Validate checks the options for internal consistency.
func (o *Options) Validate() error {
	if o.PhoneCallTimeout <= 0 {
		return fmt.Errorf("phone call timeout must be positive, got %v", o.PhoneCallTimeout)
	}
	if o.NetworkTimeout <= 0 {
		return fmt.Errorf("network timeout must be positive, got %v", o.NetworkTimeout)
	}
	if o.ProactiveRecoveryDelay <= 0 {
		return fmt.Errorf("proactive recovery delay must be positive, got %v", o.ProactiveRecoveryDelay)
	}
	if o.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive, got %d", o.MaxRetries)
	}
	if o.BackoffBase <= 1 {
		return fmt.Errorf("backoff base must be greater than 1, got %v", o.BackoffBase)
	}
	return nil
}
