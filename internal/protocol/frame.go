package protocol

import (
	"bytes"
	"encoding/json"
)

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Frame 是下发给客户端的事件帧，data 总是二次编码后的字符串
type Frame struct {
	Event   string `json:"event"`
	Data    string `json:"data,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// EncodeError renders the pusher:error frame with data double-encoded.
func EncodeError(payload ErrorPayload) []byte {
	return EncodeFrame(EventError, payload, "")
}

// EncodeFrame encodes data once as a JSON string and wraps it into an event
// frame. A nil data encodes as "{}".
func EncodeFrame(event string, data any, channel string) []byte {
	inner := []byte("{}")
	if data != nil {
		inner = mustMarshal(data)
	}
	return mustMarshal(Frame{Event: event, Data: string(inner), Channel: channel})
}

// EncodeRawFrame 保留 data 原样（不二次编码），用于转发客户端事件
func EncodeRawFrame(event, channel string, data json.RawMessage, extra map[string]any) []byte {
	frame := map[string]any{"event": event, "channel": channel}
	if data != nil {
		frame["data"] = data
	}
	for k, v := range extra {
		frame[k] = v
	}
	return mustMarshal(frame)
}

// 关闭 HTML 转义以保证与现有客户端逐字节兼容
func mustMarshal(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// 这里只编码本包构造的值，失败即为编程错误
		panic(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
