// Package interrupt implements the interruption/reconnection coordination
// engine.
//
// The Coordinator merges phone-call and network signals into a single
// current interruption source, applies the priority rule (a phone call
// always pre-empts network loss, never the reverse), enforces a per-source
// countdown timer, and drives the lifecycle machine into and out of the
// interrupted state. All decisions happen inside one serialized critical
// section; signals, timer fires, and transport callbacks from arbitrary
// goroutines are marshalled through it, and host notifications are emitted
// only after the state change and transport action they describe.
package interrupt
