// Package signal defines the external interruption-signal collaborators.
//
// Phone-call detection and network-reachability detection are OS-level
// concerns provided by the host; this package only fixes their contracts.
// Both sources deliver debounced edge events (true state changes only) and
// expose a live state query so the coordinator can re-check reality instead
// of trusting a possibly stale edge.
package signal
