package transport

// Params are the encoding parameters handed to Prepare.
type Params struct {
	// BitrateKbps is the target audio bitrate in kilobits per second.
	BitrateKbps int
	// SampleRateHz is the capture sample rate.
	SampleRateHz int
	// Stereo selects two-channel capture.
	Stereo bool
	// EchoCanceler enables the platform echo canceler.
	EchoCanceler bool
	// NoiseSuppressor enables the platform noise suppressor.
	NoiseSuppressor bool
}

// Callbacks receives the transport's asynchronous connection outcomes.
// Implementations may be invoked from any goroutine.
type Callbacks interface {
	// OnConnectSuccess reports that the publish connection is established.
	OnConnectSuccess()
	// OnConnectFailed reports that a connection attempt failed.
	// The error should be a *ConnectError when the transport can classify it.
	OnConnectFailed(err error)
	// OnClosed reports that the connection closed.
	OnClosed()
}

// Transport is the streaming publish primitive.
//
// Stop must be safe to call at any time, in any state, repeatedly, and must
// not block on network I/O: the coordinator relies on it as an unconditional,
// bounded-time cancellation primitive.
type Transport interface {
	// IsActive reports whether a publish connection is currently open.
	IsActive() bool
	// Prepare configures the encoder with the given parameters.
	Prepare(p Params) error
	// Start begins publishing to the given URL. The connection outcome is
	// reported asynchronously through Callbacks.
	Start(url string) error
	// Stop force-closes the connection. Idempotent, non-blocking.
	Stop()
	// Mute silences outgoing audio without touching the connection.
	Mute()
	// Unmute restores outgoing audio.
	Unmute()
	// SetCallbacks registers the receiver for asynchronous outcomes.
	SetCallbacks(cb Callbacks)
}
