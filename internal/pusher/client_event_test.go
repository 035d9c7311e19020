package pusher

import (
	"encoding/json"
	"go-pusher-gateway/internal/channels"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientMessage(t *testing.T, raw string) *protocol.InboundMessage {
	t.Helper()
	msg, err := protocol.ParseMessage([]byte(raw))
	require.NoError(t, err)
	return msg
}

func TestClientEventHandler_Ignored(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not a client event", raw: `{"event":"my-event","channel":"private-chat"}`},
		{name: "missing channel", raw: `{"event":"client-typing"}`},
		{name: "empty channel", raw: `{"event":"client-typing","channel":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := channels.NewManager()
			h := NewClientEventHandler(manager)
			app := originApp("*")
			sender := newFakeConn("1.1", app, nil)
			receiver := newFakeConn("1.2", app, nil)
			_, err := manager.For(app).Subscribe(receiver, "private-chat", nil)
			require.NoError(t, err)

			assert.NoError(t, h.Handle(sender, clientMessage(t, tt.raw)))
			assert.Empty(t, receiver.sent())
		})
	}
}

func TestClientEventHandler_Rejected(t *testing.T) {
	manager := channels.NewManager()
	h := NewClientEventHandler(manager)
	app := originApp("*")
	conn := newFakeConn("1.1", app, nil)

	_, err := manager.For(app).Subscribe(conn, "news", nil)
	require.NoError(t, err)

	err = h.Handle(conn, clientMessage(t, `{"event":"client-typing","channel":"news"}`))
	assert.ErrorIs(t, err, ErrClientEventsNotAllowed)
	assert.Equal(t, protocol.ProtocolViolation, protocol.Classify(err).Kind)

	err = h.Handle(conn, clientMessage(t, `{"event":"client-typing","channel":"private-chat"}`))
	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestClientEventHandler_Broadcast(t *testing.T) {
	manager := channels.NewManager()
	h := NewClientEventHandler(manager)
	app := originApp("*")
	sender := newFakeConn("1.1", app, nil)
	receiver := newFakeConn("1.2", app, nil)
	for _, c := range []*fakeConn{sender, receiver} {
		_, err := manager.For(app).Subscribe(c, "private-chat", nil)
		require.NoError(t, err)
	}

	err := h.Handle(sender, clientMessage(t, `{"event":"client-typing","channel":"private-chat","data":{"a":1}}`))
	require.NoError(t, err)

	assert.Empty(t, sender.sent(), "client events are not echoed to the sender")
	require.Len(t, receiver.sent(), 1)
	assert.JSONEq(t, `{"event":"client-typing","channel":"private-chat","data":{"a":1}}`, receiver.sent()[0])
}

func TestClientEventHandler_PresenceIncludesUserID(t *testing.T) {
	manager := channels.NewManager()
	h := NewClientEventHandler(manager)
	app := originApp("*")
	sender := newFakeConn("1.1", app, nil)
	receiver := newFakeConn("1.2", app, nil)

	_, err := manager.For(app).Subscribe(sender, "presence-room", &model.Member{UserID: "alice"})
	require.NoError(t, err)
	_, err = manager.For(app).Subscribe(receiver, "presence-room", &model.Member{UserID: "bob", UserInfo: json.RawMessage(`{}`)})
	require.NoError(t, err)

	err = h.Handle(sender, clientMessage(t, `{"event":"client-wave","channel":"presence-room","data":"hi"}`))
	require.NoError(t, err)

	frames := receiver.sent()
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"event":"client-wave","channel":"presence-room","data":"hi","user_id":"alice"}`, frames[0])
}

func TestNewSocketID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewSocketID()
		assert.Regexp(t, `^[1-9][0-9]*\.[1-9][0-9]*$`, id)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 90)
}
