package transport

import "fmt"

// ErrorCode classifies a connection failure.
//
// Transports that know why a connection failed should report a *ConnectError
// with the matching code; classification then never depends on the failure
// text. CodeUnknown triggers the keyword fallback in IsNetworkRelated.
type ErrorCode int

const (
	// CodeUnknown means the transport could not classify the failure.
	CodeUnknown ErrorCode = iota
	// CodeNetworkUnreachable means the network path is down.
	CodeNetworkUnreachable
	// CodeTimeout means the connection attempt timed out.
	CodeTimeout
	// CodeConnectionReset means an established connection was reset.
	CodeConnectionReset
	// CodeDNSFailure means name resolution failed.
	CodeDNSFailure
	// CodeRefused means the remote actively refused the connection.
	CodeRefused
	// CodeRejectedByServer means the server rejected the publish request.
	CodeRejectedByServer
	// CodeInternal means a local, non-network transport fault.
	CodeInternal
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	switch c {
	case CodeUnknown:
		return "unknown"
	case CodeNetworkUnreachable:
		return "network_unreachable"
	case CodeTimeout:
		return "timeout"
	case CodeConnectionReset:
		return "connection_reset"
	case CodeDNSFailure:
		return "dns_failure"
	case CodeRefused:
		return "refused"
	case CodeRejectedByServer:
		return "rejected_by_server"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ConnectError is a classified connection failure.
type ConnectError struct {
	// Code is the transport's classification of the failure.
	Code ErrorCode
	// Reason is the human-readable failure description.
	Reason string
}

// NewConnectError creates a classified connection failure.
func NewConnectError(code ErrorCode, reason string) *ConnectError {
	return &ConnectError{Code: code, Reason: reason}
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connect failed: %s", e.Code)
	}
	return fmt.Sprintf("connect failed (%s): %s", e.Code, e.Reason)
}
