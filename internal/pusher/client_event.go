package pusher

import (
	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/protocol"
)

var (
	ErrClientEventsNotAllowed = protocol.NewProtocolError(4009, "Client events are only supported on private and presence channels")
	ErrNotSubscribed          = protocol.NewProtocolError(4009, "The client is not subscribed to the channel")
)

// ClientEventHandler 把 client- 事件转发给同频道的其他订阅者
type ClientEventHandler struct {
	channels interfaces.ChannelManager
}

func NewClientEventHandler(channels interfaces.ChannelManager) *ClientEventHandler {
	return &ClientEventHandler{channels: channels}
}

func (h *ClientEventHandler) Handle(conn interfaces.Connection, message *protocol.InboundMessage) error {
	// 非 client- 事件或缺少频道时静默忽略
	if !protocol.IsClientEvent(message.Event) || message.Channel == nil || *message.Channel == "" {
		return nil
	}
	channel := *message.Channel

	if !protocol.RequiresAuth(channel) {
		return ErrClientEventsNotAllowed
	}

	channels := h.channels.For(conn.App())
	if !channels.IsSubscribed(conn, channel) {
		return ErrNotSubscribed
	}

	var extra map[string]any
	if member := channels.MemberOf(conn, channel); member != nil {
		extra = map[string]any{"user_id": member.UserID}
	}

	channels.Broadcast(channel, protocol.EncodeRawFrame(message.Event, channel, message.Data, extra), conn)
	return nil
}
