package pusher

import (
	"encoding/json"
	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"sync"
	"time"
)

// callLog 记录跨协作者的调用顺序
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeConn struct {
	id     string
	app    *model.App
	origin string
	log    *callLog

	mu           sync.Mutex
	frames       [][]byte
	touches      int
	disconnected int
}

func newFakeConn(id string, app *model.App, log *callLog) *fakeConn {
	return &fakeConn{id: id, app: app, log: log}
}

func (c *fakeConn) ID() string            { return c.id }
func (c *fakeConn) App() *model.App       { return c.app }
func (c *fakeConn) Origin() string        { return c.origin }
func (c *fakeConn) LastSeenAt() time.Time { return time.Time{} }

func (c *fakeConn) Touch() {
	c.mu.Lock()
	c.touches++
	c.mu.Unlock()
	c.log.add("touch")
}

func (c *fakeConn) Send(frame []byte) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
	c.log.add("send")
}

func (c *fakeConn) Disconnect() {
	c.mu.Lock()
	c.disconnected++
	c.mu.Unlock()
	c.log.add("disconnect")
}

func (c *fakeConn) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, string(f))
	}
	return out
}

func (c *fakeConn) frameAt(i int) protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var f protocol.Frame
	_ = json.Unmarshal(c.frames[i], &f)
	return f
}

type protocolCall struct {
	event   string
	data    string
	channel *string
}

type fakeProtocolHandler struct {
	log   *callLog
	err   error
	panic any

	mu    sync.Mutex
	calls []protocolCall
}

func (h *fakeProtocolHandler) Handle(_ interfaces.Connection, event string, data json.RawMessage, channel *string) error {
	h.mu.Lock()
	h.calls = append(h.calls, protocolCall{event: event, data: string(data), channel: channel})
	h.mu.Unlock()
	h.log.add("protocol:" + event)
	if h.panic != nil {
		panic(h.panic)
	}
	return h.err
}

type fakeClientHandler struct {
	log *callLog
	err error

	mu       sync.Mutex
	messages []*protocol.InboundMessage
}

func (h *fakeClientHandler) Handle(_ interfaces.Connection, message *protocol.InboundMessage) error {
	h.mu.Lock()
	h.messages = append(h.messages, message)
	h.mu.Unlock()
	h.log.add("client:" + message.Event)
	return h.err
}

// fakeChannelManager 只记录 UnsubscribeFromAll
type fakeChannelManager struct {
	log *callLog

	mu   sync.Mutex
	apps []*model.App
}

func (m *fakeChannelManager) For(app *model.App) interfaces.AppChannels {
	m.mu.Lock()
	m.apps = append(m.apps, app)
	m.mu.Unlock()
	return &fakeAppChannels{log: m.log}
}

type fakeAppChannels struct {
	interfaces.AppChannels
	log *callLog
}

func (c *fakeAppChannels) UnsubscribeFromAll(conn interfaces.Connection) {
	c.log.add("unsubscribe_all:" + conn.ID())
}

func originApp(origins ...string) *model.App {
	return &model.App{ID: "app-id", Key: "app-key", Secret: "secret", AllowedOrigins: origins}
}
