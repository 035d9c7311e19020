package channels

import (
	"encoding/json"
	"errors"
	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/pkg/logger"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInvalidChannel = errors.New("invalid channel name")
	ErrMemberRequired = errors.New("presence channel requires member data")
)

// Manager 按 App 隔离频道命名空间
type Manager struct {
	mu   sync.Mutex
	apps map[string]*AppChannels
}

func NewManager() *Manager {
	return &Manager{apps: make(map[string]*AppChannels)}
}

func (m *Manager) For(app *model.App) interfaces.AppChannels {
	return m.forApp(app)
}

func (m *Manager) forApp(app *model.App) *AppChannels {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels, ok := m.apps[app.ID]
	if !ok {
		channels = newAppChannels(app)
		m.apps[app.ID] = channels
	}
	return channels
}

// AppChannels 是单个 App 的订阅表，所有状态由 mu 保护
type AppChannels struct {
	app      *model.App
	mu       sync.RWMutex
	channels map[string]*channel
}

type subscriber struct {
	conn   interfaces.Connection
	member *model.Member
}

type memberEntry struct {
	info        json.RawMessage
	connections int
}

type channel struct {
	name        string
	subscribers map[string]*subscriber
	members     map[string]*memberEntry // 仅 presence 频道
}

// 在锁外发送的通知
type notification struct {
	frame      []byte
	recipients []interfaces.Connection
}

func newAppChannels(app *model.App) *AppChannels {
	return &AppChannels{
		app:      app,
		channels: make(map[string]*channel),
	}
}

func (a *AppChannels) Subscribe(conn interfaces.Connection, name string, member *model.Member) (*model.Subscription, error) {
	if name == "" {
		return nil, ErrInvalidChannel
	}
	presence := protocol.IsPresenceChannel(name)
	if presence && (member == nil || member.UserID == "") {
		return nil, ErrMemberRequired
	}
	if !presence {
		member = nil
	}

	a.mu.Lock()
	ch, ok := a.channels[name]
	if !ok {
		ch = &channel{name: name, subscribers: make(map[string]*subscriber)}
		if presence {
			ch.members = make(map[string]*memberEntry)
		}
		a.channels[name] = ch
	}

	sub := &model.Subscription{Channel: name, Member: member}
	var notify *notification
	if _, exists := ch.subscribers[conn.ID()]; !exists {
		ch.subscribers[conn.ID()] = &subscriber{conn: conn, member: member}
		if presence {
			entry, known := ch.members[member.UserID]
			if !known {
				entry = &memberEntry{info: member.UserInfo}
				ch.members[member.UserID] = entry
			}
			entry.connections++
			sub.Joined = entry.connections == 1
			if sub.Joined {
				notify = &notification{
					frame:      protocol.EncodeFrame(protocol.EventMemberAdded, member, name),
					recipients: ch.recipients(conn),
				}
			}
		}
	}
	if presence {
		sub.Presence = ch.presence()
	}
	a.mu.Unlock()

	a.deliver(notify)
	logger.L.Debug("Connection subscribed",
		zap.String("app", a.app.ID),
		zap.String("channel", name),
		zap.String("connection_id", conn.ID()))
	return sub, nil
}

func (a *AppChannels) Unsubscribe(conn interfaces.Connection, name string) {
	a.mu.Lock()
	notify := a.remove(conn, name)
	a.mu.Unlock()

	a.deliver(notify)
}

// UnsubscribeFromAll 对没有任何订阅的连接是 no-op
func (a *AppChannels) UnsubscribeFromAll(conn interfaces.Connection) {
	a.mu.Lock()
	var pending []*notification
	for name, ch := range a.channels {
		if _, ok := ch.subscribers[conn.ID()]; !ok {
			continue
		}
		if n := a.remove(conn, name); n != nil {
			pending = append(pending, n)
		}
	}
	a.mu.Unlock()

	for _, n := range pending {
		a.deliver(n)
	}
}

// 调用方必须持有 a.mu
func (a *AppChannels) remove(conn interfaces.Connection, name string) *notification {
	ch, ok := a.channels[name]
	if !ok {
		return nil
	}
	sub, ok := ch.subscribers[conn.ID()]
	if !ok {
		return nil
	}
	delete(ch.subscribers, conn.ID())

	var notify *notification
	if sub.member != nil {
		if entry, ok := ch.members[sub.member.UserID]; ok {
			entry.connections--
			if entry.connections <= 0 {
				delete(ch.members, sub.member.UserID)
				notify = &notification{
					frame:      protocol.EncodeFrame(protocol.EventMemberRemoved, map[string]string{"user_id": sub.member.UserID}, name),
					recipients: ch.recipients(nil),
				}
			}
		}
	}

	if len(ch.subscribers) == 0 {
		delete(a.channels, name)
	}
	return notify
}

func (a *AppChannels) IsSubscribed(conn interfaces.Connection, name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ch, ok := a.channels[name]
	if !ok {
		return false
	}
	_, ok = ch.subscribers[conn.ID()]
	return ok
}

// MemberOf 返回连接在 presence 频道中的成员信息
func (a *AppChannels) MemberOf(conn interfaces.Connection, name string) *model.Member {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ch, ok := a.channels[name]
	if !ok {
		return nil
	}
	if sub, ok := ch.subscribers[conn.ID()]; ok {
		return sub.member
	}
	return nil
}

func (a *AppChannels) Broadcast(name string, frame []byte, except interfaces.Connection) {
	a.mu.RLock()
	ch, ok := a.channels[name]
	var recipients []interfaces.Connection
	if ok {
		recipients = ch.recipients(except)
	}
	a.mu.RUnlock()

	a.deliver(&notification{frame: frame, recipients: recipients})
}

// Channels 返回当前有订阅者的频道名，按字典序
func (a *AppChannels) Channels() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.channels))
	for name := range a.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *AppChannels) SubscriptionCount(name string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if ch, ok := a.channels[name]; ok {
		return len(ch.subscribers)
	}
	return 0
}

func (a *AppChannels) Presence(name string) *model.Presence {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ch, ok := a.channels[name]
	if !ok || ch.members == nil {
		return nil
	}
	return ch.presence()
}

func (a *AppChannels) deliver(n *notification) {
	if n == nil {
		return
	}
	for _, conn := range n.recipients {
		conn.Send(n.frame)
	}
}

func (c *channel) recipients(except interfaces.Connection) []interfaces.Connection {
	out := make([]interfaces.Connection, 0, len(c.subscribers))
	for id, sub := range c.subscribers {
		if except != nil && id == except.ID() {
			continue
		}
		out = append(out, sub.conn)
	}
	return out
}

func (c *channel) presence() *model.Presence {
	p := &model.Presence{
		IDs:   make([]string, 0, len(c.members)),
		Hash:  make(map[string]json.RawMessage, len(c.members)),
		Count: len(c.members),
	}
	for id, entry := range c.members {
		p.IDs = append(p.IDs, id)
		p.Hash[id] = entry.info
	}
	sort.Strings(p.IDs)
	return p
}
