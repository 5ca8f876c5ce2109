package event

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Type identifies a lifecycle notification delivered to the host.
type Type string

const (
	// TypeAudioInterrupted indicates streaming was interrupted by a phone call.
	TypeAudioInterrupted Type = "audio_interrupted"
	// TypeNetworkInterrupted indicates streaming was interrupted by connectivity loss.
	TypeNetworkInterrupted Type = "network_interrupted"
	// TypeAudioResumed indicates streaming resumed after a phone-call interruption.
	TypeAudioResumed Type = "audio_resumed"
	// TypeNetworkResumed indicates streaming resumed after a network interruption.
	TypeNetworkResumed Type = "network_resumed"
	// TypeRetry indicates a bounded reconnection retry has been scheduled.
	TypeRetry Type = "rtmp_retry"
	// TypeStopped indicates the stream was stopped after a prolonged interruption.
	TypeStopped Type = "rtmp_stopped"
	// TypeError indicates a terminal error condition.
	TypeError Type = "error"
)

// Event is a single lifecycle notification.
type Event struct {
	// Type identifies the notification.
	Type Type
	// Message is a human-readable description.
	Message string
	// Attempt carries the retry attempt number for TypeRetry events, zero otherwise.
	Attempt int
	// At is the time the event was produced.
	At time.Time
}

// Emitter is the one-way channel to the host application.
//
// Emit must not block: implementations are invoked from lifecycle-critical
// paths and are expected to hand the event off immediately.
type Emitter interface {
	Emit(evt Event)
}

// FuncEmitter adapts a plain function to the Emitter interface.
type FuncEmitter func(evt Event)

// Emit calls the underlying function.
func (f FuncEmitter) Emit(evt Event) {
	f(evt)
}

// ChannelEmitter delivers events on a buffered channel.
//
// When the buffer is full the event is dropped and counted rather than
// blocking the producer; a host that cares about every event must drain the
// channel promptly.
type ChannelEmitter struct {
	ch      chan Event
	mu      sync.Mutex
	dropped uint64
}

// NewChannelEmitter creates a ChannelEmitter with the given buffer size.
// A non-positive size falls back to a buffer of 16.
func NewChannelEmitter(size int) *ChannelEmitter {
	if size <= 0 {
		size = 16
	}
	return &ChannelEmitter{ch: make(chan Event, size)}
}

// Events returns the receive side of the emitter.
func (e *ChannelEmitter) Events() <-chan Event {
	return e.ch
}

// Dropped returns how many events were discarded due to a full buffer.
func (e *ChannelEmitter) Dropped() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Emit sends the event without blocking, dropping it if the buffer is full.
func (e *ChannelEmitter) Emit(evt Event) {
	select {
	case e.ch <- evt:
	default:
		e.mu.Lock()
		e.dropped++
		dropped := e.dropped
		e.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function":   "Emit",
			"event_type": evt.Type,
			"dropped":    dropped,
		}).Warn("Event buffer full, notification dropped")
	}
}
