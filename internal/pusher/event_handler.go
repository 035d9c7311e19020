package pusher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnknownEvent       = errors.New("unknown pusher event")
	ErrMissingChannel     = errors.New("missing channel")
	ErrInvalidChannelData = errors.New("invalid channel_data")
)

// EventHandler 处理 pusher: 前缀的控制事件
type EventHandler struct {
	channels        interfaces.ChannelManager
	activityTimeout time.Duration
}

func NewEventHandler(channels interfaces.ChannelManager, activityTimeout time.Duration) *EventHandler {
	return &EventHandler{
		channels:        channels,
		activityTimeout: activityTimeout,
	}
}

type subscriptionPayload struct {
	Channel     string          `json:"channel"`
	Auth        string          `json:"auth"`
	ChannelData json.RawMessage `json:"channel_data"`
}

type channelData struct {
	UserID   json.RawMessage `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info"`
}

func (h *EventHandler) Handle(conn interfaces.Connection, event string, data json.RawMessage, channel *string) error {
	switch event {
	case protocol.EventConnectionEstablished:
		h.acknowledge(conn)
		return nil
	case protocol.EventSubscribe:
		payload, err := decodeSubscription(data, channel)
		if err != nil {
			return err
		}
		return h.subscribe(conn, payload)
	case protocol.EventUnsubscribe:
		payload, err := decodeSubscription(data, channel)
		if err != nil {
			return err
		}
		h.channels.For(conn.App()).Unsubscribe(conn, payload.Channel)
		return nil
	case protocol.EventPing:
		conn.Send(protocol.EncodeFrame(protocol.EventPong, nil, ""))
		return nil
	case protocol.EventPong:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
}

func (h *EventHandler) acknowledge(conn interfaces.Connection) {
	conn.Send(protocol.EncodeFrame(protocol.EventConnectionEstablished, map[string]any{
		"socket_id":        conn.ID(),
		"activity_timeout": h.activityTimeoutFor(conn.App()),
	}, ""))
}

// App 级别的设置优先于全局配置
func (h *EventHandler) activityTimeoutFor(app *model.App) int {
	if app != nil && app.ActivityTimeout > 0 {
		return app.ActivityTimeout
	}
	return int(h.activityTimeout / time.Second)
}

func (h *EventHandler) subscribe(conn interfaces.Connection, payload *subscriptionPayload) error {
	app := conn.App()

	if protocol.RequiresAuth(payload.Channel) && !authorized(app, payload.Auth) {
		return protocol.ErrUnauthorized
	}

	var member *model.Member
	if protocol.IsPresenceChannel(payload.Channel) {
		m, err := parseMember(payload.ChannelData)
		if err != nil {
			return err
		}
		member = m
	}

	sub, err := h.channels.For(app).Subscribe(conn, payload.Channel, member)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", payload.Channel, err)
	}

	var data any
	if sub.Presence != nil {
		data = map[string]any{"presence": sub.Presence}
	}
	conn.Send(protocol.EncodeFrame(protocol.EventSubscriptionSucceeded, data, payload.Channel))

	logger.L.Debug("Subscription succeeded",
		zap.String("connection_id", conn.ID()),
		zap.String("channel", payload.Channel),
		zap.Bool("joined", sub.Joined))
	return nil
}

// authorized 只检查 auth 的 key 部分，签名校验不在本服务范围内
func authorized(app *model.App, auth string) bool {
	key, signature, ok := strings.Cut(auth, ":")
	return ok && key == app.Key && signature != ""
}

// decodeSubscription 兼容 data 为对象或者 JSON 字符串两种形式
func decodeSubscription(data json.RawMessage, channel *string) (*subscriptionPayload, error) {
	data, err := unwrapString(data)
	if err != nil {
		return nil, err
	}

	var payload subscriptionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	if payload.Channel == "" && channel != nil {
		payload.Channel = *channel
	}
	if payload.Channel == "" {
		return nil, ErrMissingChannel
	}
	return &payload, nil
}

func parseMember(raw json.RawMessage) (*model.Member, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidChannelData
	}
	raw, err := unwrapString(raw)
	if err != nil {
		return nil, err
	}

	var data channelData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChannelData, err)
	}

	userID, err := normalizeUserID(data.UserID)
	if err != nil {
		return nil, err
	}

	member := &model.Member{UserID: userID}
	if len(data.UserInfo) > 0 && !bytes.Equal(data.UserInfo, []byte("null")) {
		member.UserInfo = data.UserInfo
	}
	return member, nil
}

// user_id 可以是字符串或数字
func normalizeUserID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: user_id is required", ErrInvalidChannelData)
}

func unwrapString(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw, nil
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, fmt.Errorf("decode string payload: %w", err)
	}
	return json.RawMessage(inner), nil
}
