package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// EmptyData 是缺省的 data 值
var EmptyData = json.RawMessage(`{}`)

// InboundMessage 是解析成功的客户端帧
type InboundMessage struct {
	Event   string
	Data    json.RawMessage // 缺省或 null 时为 nil
	Channel *string         // 缺省或 null 时为 nil
}

// DataOrEmpty returns the data payload, or {} when the frame carried none.
func (m *InboundMessage) DataOrEmpty() json.RawMessage {
	if m.Data == nil {
		return EmptyData
	}
	return m.Data
}

// ParseError 表示帧无法解析或缺少 event 字段
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message: %s: %v", e.Reason, e.Err)
	}
	return "malformed message: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type wireMessage struct {
	Event   *string         `json:"event"`
	Data    json.RawMessage `json:"data"`
	Channel *string         `json:"channel"`
}

// ParseMessage decodes one inbound text frame. Any failure is a *ParseError.
func ParseMessage(raw []byte) (*InboundMessage, error) {
	// 非法 UTF-8 视为格式错误，不交给 json 解码
	if !utf8.Valid(raw) {
		return nil, &ParseError{Reason: "invalid utf-8"}
	}

	var wire wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &ParseError{Reason: "invalid json", Err: err}
	}
	if wire.Event == nil {
		return nil, &ParseError{Reason: "missing event"}
	}
	if *wire.Event == "" {
		return nil, &ParseError{Reason: "empty event"}
	}

	msg := &InboundMessage{
		Event:   *wire.Event,
		Channel: wire.Channel,
	}
	if len(wire.Data) > 0 && !bytes.Equal(wire.Data, []byte("null")) {
		msg.Data = wire.Data
	}
	return msg, nil
}
