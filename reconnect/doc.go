// Package reconnect executes the clean-slate reconnection sequence and owns
// bounded retry with exponential backoff for transport connection failures.
//
// Every step of the sequence is gated on the lifecycle state still being the
// one the attempt was issued for; a stale attempt aborts silently rather
// than acting on a session that has moved on.
package reconnect
