package interfaces

import (
	"encoding/json"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/protocol"
	"time"
)

// Connection 是传输层连接的抽象
// websocket.Connection实现
type Connection interface {
	ID() string
	App() *model.App
	Origin() string // 未声明时为空
	Touch()
	LastSeenAt() time.Time
	Send(frame []byte)
	Disconnect()
}

// 定义了频道的订阅与广播
// channels.Manager实现
type ChannelManager interface {
	For(app *model.App) AppChannels
}

type AppChannels interface {
	Subscribe(conn Connection, channel string, member *model.Member) (*model.Subscription, error)
	Unsubscribe(conn Connection, channel string)
	UnsubscribeFromAll(conn Connection)
	IsSubscribed(conn Connection, channel string) bool
	MemberOf(conn Connection, channel string) *model.Member
	Broadcast(channel string, frame []byte, except Connection)
	Channels() []string
}

// 处理 pusher: 前缀的控制事件
// pusher.EventHandler实现
type ProtocolEventHandler interface {
	Handle(conn Connection, event string, data json.RawMessage, channel *string) error
}

// 处理客户端自定义事件
// pusher.ClientEventHandler实现
type ClientEventHandler interface {
	Handle(conn Connection, message *protocol.InboundMessage) error
}

// 定义了传输层回调的连接生命周期
// pusher.Server实现
type MessageHandler interface {
	Open(conn Connection)
	Message(conn Connection, message []byte)
	Close(conn Connection)
}

// service.AppService实现
type AppProvider interface {
	FindByKey(key string) (*model.App, error)
	FindByID(id string) (*model.App, error)
	All() ([]*model.App, error)
}
