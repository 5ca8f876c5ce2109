// Package stream holds the authoritative session lifecycle state.
//
// The Machine owns the single StreamState value and validates every
// transition against a fixed table; everything else in the module reads the
// lifecycle through it and mutates it only through Transition. The Session
// record retains the publish destination across interruption and
// reconnection cycles so recovery always targets the original stream.
package stream
