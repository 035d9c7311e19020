package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    FailureKind
		wantPayload ErrorPayload
	}{
		{
			name:        "handshake rejected",
			err:         &HandshakeError{Origin: "https://evil.com"},
			wantKind:    HandshakeRejected,
			wantPayload: ErrorPayload{Code: 4009, Message: "Origin not allowed"},
		},
		{
			name:        "protocol error passes through",
			err:         NewProtocolError(4301, "Client event rejected"),
			wantKind:    ProtocolViolation,
			wantPayload: ErrorPayload{Code: 4301, Message: "Client event rejected"},
		},
		{
			name:        "wrapped protocol error",
			err:         fmt.Errorf("subscribe: %w", ErrUnauthorized),
			wantKind:    ProtocolViolation,
			wantPayload: ErrorPayload{Code: 4009, Message: "Connection is unauthorized"},
		},
		{
			name:        "parse error",
			err:         &ParseError{Reason: "missing event"},
			wantKind:    MalformedMessage,
			wantPayload: ErrorPayload{Code: 4200, Message: "Invalid message format"},
		},
		{
			name:        "unknown error hides details",
			err:         errors.New("database exploded"),
			wantKind:    MalformedMessage,
			wantPayload: ErrorPayload{Code: 4200, Message: "Invalid message format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Classify(tt.err)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantPayload, f.Payload())
			assert.Equal(t, tt.err.Error(), f.Detail())
		})
	}
}

func TestFailureKind_String(t *testing.T) {
	assert.Equal(t, "handshake_rejected", HandshakeRejected.String())
	assert.Equal(t, "protocol_error", ProtocolViolation.String())
	assert.Equal(t, "malformed_message", MalformedMessage.String())
}

func TestHandshakeError_Error(t *testing.T) {
	assert.Equal(t, "origin not allowed: no origin declared", (&HandshakeError{}).Error())
	assert.Equal(t, "origin not allowed: https://evil.com", (&HandshakeError{Origin: "https://evil.com"}).Error())
}
