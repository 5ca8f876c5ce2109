package transport

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// networkKeywords is the fallback heuristic for transports that only report
// failure text. It preserves the intent of the code contract: unreachable,
// timeout, and reset-style failures count as network-related.
var networkKeywords = []string{
	"network",
	"timeout",
	"timed out",
	"unreachable",
	"socket",
	"dns",
	"no route",
	"connection reset",
	"broken pipe",
	"connection refused",
	"host is down",
}

// IsNetworkRelated reports whether a connection failure should be treated as
// a network interruption rather than an ordinary retryable fault.
//
// A *ConnectError is classified by its code. Anything else, and CodeUnknown,
// falls back to keyword matching against the failure text.
func IsNetworkRelated(err error) bool {
	if err == nil {
		return false
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		switch ce.Code {
		case CodeNetworkUnreachable, CodeTimeout, CodeConnectionReset, CodeDNSFailure, CodeRefused:
			return true
		case CodeRejectedByServer, CodeInternal:
			return false
		case CodeUnknown:
			return matchesNetworkKeyword(ce.Reason)
		}
	}

	return matchesNetworkKeyword(err.Error())
}

func matchesNetworkKeyword(reason string) bool {
	lowered := strings.ToLower(reason)
	for _, kw := range networkKeywords {
		if strings.Contains(lowered, kw) {
			logrus.WithFields(logrus.Fields{
				"function": "matchesNetworkKeyword",
				"keyword":  kw,
			}).Debug("Failure text classified as network-related")
			return true
		}
	}
	return false
}
