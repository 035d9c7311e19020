package protocol

import (
	"errors"
	"fmt"
)

// 通用错误码，具体原因不会暴露给客户端
const (
	CodeInvalidMessageFormat    = 4200
	MessageInvalidMessageFormat = "Invalid message format"
)

// ProtocolError 是可以原样下发给客户端的协议错误
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("pusher error %d: %s", e.Code, e.Message)
}

func (e *ProtocolError) Payload() ErrorPayload {
	return ErrorPayload{Code: e.Code, Message: e.Message}
}

func NewProtocolError(code int, message string) *ProtocolError {
	return &ProtocolError{Code: code, Message: message}
}

var (
	ErrApplicationNotFound = NewProtocolError(4001, "Application does not exist")
	ErrOverQuota           = NewProtocolError(4004, "Application is over connection quota")
	ErrUnauthorized        = NewProtocolError(4009, "Connection is unauthorized")
)

// HandshakeError 在来源校验失败时返回
type HandshakeError struct {
	Origin string
}

func (e *HandshakeError) Error() string {
	if e.Origin == "" {
		return "origin not allowed: no origin declared"
	}
	return fmt.Sprintf("origin not allowed: %s", e.Origin)
}

// Payload 是 HandshakeError 对应的线上错误
func (e *HandshakeError) Payload() ErrorPayload {
	return ErrorPayload{Code: 4009, Message: "Origin not allowed"}
}

type FailureKind int

const (
	MalformedMessage FailureKind = iota
	HandshakeRejected
	ProtocolViolation
)

func (k FailureKind) String() string {
	switch k {
	case HandshakeRejected:
		return "handshake_rejected"
	case ProtocolViolation:
		return "protocol_error"
	default:
		return "malformed_message"
	}
}

// Failure 是处理一个连接事件时失败的分类结果
type Failure struct {
	Kind    FailureKind
	Code    int
	Message string
	Err     error
}

// Classify maps any error into a Failure. Errors that carry no protocol payload,
// including parse failures, collapse into the generic 4200 failure.
func Classify(err error) Failure {
	var handshake *HandshakeError
	if errors.As(err, &handshake) {
		p := handshake.Payload()
		return Failure{Kind: HandshakeRejected, Code: p.Code, Message: p.Message, Err: err}
	}

	var protocolErr *ProtocolError
	if errors.As(err, &protocolErr) {
		p := protocolErr.Payload()
		return Failure{Kind: ProtocolViolation, Code: p.Code, Message: p.Message, Err: err}
	}

	return Failure{
		Kind:    MalformedMessage,
		Code:    CodeInvalidMessageFormat,
		Message: MessageInvalidMessageFormat,
		Err:     err,
	}
}

func (f Failure) Payload() ErrorPayload {
	return ErrorPayload{Code: f.Code, Message: f.Message}
}

// Detail 返回底层错误信息，仅用于日志
func (f Failure) Detail() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Err.Error()
}
