package signal

// PhoneHandler receives phone-call edge events.
type PhoneHandler interface {
	// CallBegan reports that a call became active, ideally at ring time.
	CallBegan()
	// CallEnded reports that the active call ended.
	CallEnded()
}

// PhoneSignal is the phone-call detection collaborator.
//
// Implementations must debounce delivery so only true state changes reach
// the handler, and may invoke the handler from any goroutine.
type PhoneSignal interface {
	// IsActive reports whether a call is active right now.
	IsActive() bool
	// SetHandler registers the receiver for call edge events.
	SetHandler(h PhoneHandler)
}

// NetworkHandler receives connectivity edge events.
type NetworkHandler interface {
	// NetworkLost reports that connectivity was lost.
	NetworkLost()
	// NetworkAvailable reports that connectivity is available again.
	NetworkAvailable()
}

// NetworkSignal is the network-reachability collaborator.
//
// Implementations must debounce delivery (roughly 100-300ms) to suppress
// flapping, and may invoke the handler from any goroutine.
type NetworkSignal interface {
	// IsAvailable reports whether connectivity is available right now.
	IsAvailable() bool
	// SetHandler registers the receiver for connectivity edge events.
	SetHandler(h NetworkHandler)
}
