package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNetworkRelatedByCode(t *testing.T) {
	networkCodes := []ErrorCode{
		CodeNetworkUnreachable,
		CodeTimeout,
		CodeConnectionReset,
		CodeDNSFailure,
		CodeRefused,
	}
	for _, code := range networkCodes {
		t.Run(code.String(), func(t *testing.T) {
			assert.True(t, IsNetworkRelated(NewConnectError(code, "whatever")))
		})
	}

	localCodes := []ErrorCode{CodeRejectedByServer, CodeInternal}
	for _, code := range localCodes {
		t.Run(code.String(), func(t *testing.T) {
			assert.False(t, IsNetworkRelated(NewConnectError(code, "network is fine")),
				"classified codes must ignore the failure text")
		})
	}
}

func TestIsNetworkRelatedUnknownCodeFallsBackToText(t *testing.T) {
	assert.True(t, IsNetworkRelated(NewConnectError(CodeUnknown, "connection timed out")))
	assert.False(t, IsNetworkRelated(NewConnectError(CodeUnknown, "invalid stream key")))
}

func TestIsNetworkRelatedPlainErrors(t *testing.T) {
	assert.True(t, IsNetworkRelated(errors.New("dial tcp: network is unreachable")))
	assert.True(t, IsNetworkRelated(errors.New("read: connection reset by peer")))
	assert.True(t, IsNetworkRelated(errors.New("DNS lookup failed")))
	assert.True(t, IsNetworkRelated(errors.New("write: broken pipe")))
	assert.False(t, IsNetworkRelated(errors.New("unsupported codec configuration")))
	assert.False(t, IsNetworkRelated(nil))
}

func TestIsNetworkRelatedWrappedConnectError(t *testing.T) {
	wrapped := fmt.Errorf("publish failed: %w", NewConnectError(CodeTimeout, ""))
	assert.True(t, IsNetworkRelated(wrapped))
}

func TestConnectErrorMessage(t *testing.T) {
	assert.Equal(t, "connect failed (timeout): handshake deadline exceeded",
		NewConnectError(CodeTimeout, "handshake deadline exceeded").Error())
	assert.Equal(t, "connect failed: internal", NewConnectError(CodeInternal, "").Error())
}
