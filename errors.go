package livepush

import "errors"

// Sentinel errors for publisher operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrCallActive indicates Start was invoked while a phone call is active.
	ErrCallActive = errors.New("phone call active")

	// ErrAlreadyStreaming indicates a session already exists.
	ErrAlreadyStreaming = errors.New("session already active")

	// ErrNotStreaming indicates no session exists.
	ErrNotStreaming = errors.New("no active session")

	// ErrInvalidURL indicates an empty or malformed publish URL.
	ErrInvalidURL = errors.New("invalid publish URL")
)
