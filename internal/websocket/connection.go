package websocket

import (
	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/pkg/config"
	"go-pusher-gateway/pkg/logger"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Options struct {
	WriteWait      time.Duration // 写超时
	PongWait       time.Duration // 等待pong的最大时间
	MaxMessageSize int64         // 消息最大长度
	SendBufferSize int
}

// OptionsFor 合并全局配置和 App 级别的覆盖
func OptionsFor(cfg config.WebSocketConfig, app *model.App) Options {
	opts := Options{
		WriteWait:      cfg.WriteWait(),
		PongWait:       cfg.PongWait(),
		MaxMessageSize: int64(cfg.MaxMessageSize),
		SendBufferSize: cfg.SendBufferSize,
	}
	if app != nil && app.MaxMessageSize > 0 {
		opts.MaxMessageSize = int64(app.MaxMessageSize)
	}
	return opts
}

// 发送ping的周期
func (o Options) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Connection 是基于 gorilla/websocket 的传输层连接
type Connection struct {
	id     string
	app    *model.App
	origin string

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	lastSeen  atomic.Int64 // unix nano，只增不减

	handler interfaces.MessageHandler
	manager ConnectionManager
	opts    Options
}

func NewConnection(id string, app *model.App, origin string, conn *websocket.Conn, handler interfaces.MessageHandler, manager ConnectionManager, opts Options) *Connection {
	return &Connection{
		id:      id,
		app:     app,
		origin:  origin,
		conn:    conn,
		send:    make(chan []byte, opts.SendBufferSize),
		done:    make(chan struct{}),
		handler: handler,
		manager: manager,
		opts:    opts,
	}
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) App() *model.App {
	return c.app
}

func (c *Connection) Origin() string {
	return c.origin
}

// Touch 记录活跃时间，并发调用下保持单调不减
func (c *Connection) Touch() {
	now := time.Now().UnixNano()
	for {
		prev := c.lastSeen.Load()
		if now <= prev || c.lastSeen.CompareAndSwap(prev, now) {
			return
		}
	}
}

func (c *Connection) LastSeenAt() time.Time {
	ns := c.lastSeen.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Send 不会阻塞：缓冲区满时丢弃该帧并断开慢连接
func (c *Connection) Send(frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
	default:
		logger.L.Warn("Connection send buffer full, disconnecting",
			zap.String("connection_id", c.id),
			zap.Int("buffer", cap(c.send)))
		c.Disconnect()
	}
}

// Disconnect 可以重复调用，WritePump 会发送关闭帧并关闭底层连接
func (c *Connection) Disconnect() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) ReadPump() {
	defer func() {
		c.handler.Close(c)
		c.manager.Unregister(c)
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.Touch()
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L.Warn("Unexpected websocket close", zap.String("connection_id", c.id), zap.Error(err))
			} else {
				logger.L.Debug("Websocket read finished", zap.String("connection_id", c.id), zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))

		if messageType != websocket.TextMessage {
			logger.L.Warn("Ignoring non-text frame",
				zap.String("connection_id", c.id),
				zap.Int("messageType", messageType))
			continue
		}
		c.handler.Message(c, message)
	}
}

func (c *Connection) WritePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				logger.L.Debug("Failed to write message", zap.String("connection_id", c.id), zap.Error(err))
				c.Disconnect()
				return
			}

			// 批量写出已排队的消息
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.write(<-c.send); err != nil {
					logger.L.Debug("Failed to write batched message", zap.String("connection_id", c.id), zap.Error(err))
					c.Disconnect()
					return
				}
			}

		case <-c.done:
			// 断开前尽量送达已排队的帧（例如错误帧）
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.L.Debug("Failed to send ping", zap.String("connection_id", c.id), zap.Error(err))
				c.Disconnect()
				return
			}
		}
	}
}

func (c *Connection) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Connection) write(message []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}
