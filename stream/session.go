package stream

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Session is the active logical stream.
//
// URL and StreamName are fixed at creation and retained across interruption
// and reconnection cycles, so recovery always republishes to the exact
// destination the host asked for. Only the retry counter mutates.
type Session struct {
	// ID uniquely identifies this logical session.
	ID uuid.UUID
	// URL is the ingest endpoint the host passed to Start.
	URL string
	// StreamName is the publish key/name appended to the URL.
	StreamName string

	mu         sync.Mutex
	retryCount int
}

// NewSession creates a session for the given destination.
func NewSession(url, streamName string) *Session {
	return &Session{
		ID:         uuid.New(),
		URL:        url,
		StreamName: streamName,
	}
}

// PublishURL returns the full publish target, joining URL and StreamName.
func (s *Session) PublishURL() string {
	if s.StreamName == "" {
		return s.URL
	}
	return strings.TrimSuffix(s.URL, "/") + "/" + s.StreamName
}

// RetryCount returns the number of connection retries consumed so far.
func (s *Session) RetryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryCount
}

// IncrementRetry consumes one retry and returns the new count.
func (s *Session) IncrementRetry() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryCount++
	return s.retryCount
}

// ResetRetry clears the retry counter. Called on every successful connect.
func (s *Session) ResetRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryCount = 0
}
