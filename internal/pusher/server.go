package pusher

import (
	"fmt"
	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/pkg/logger"
	"net/url"
	"slices"
)

// Server 是每个连接的协议分发器。它本身无状态，可被多个连接并发调用；
// 同一连接的事件由传输层按序投递。
type Server struct {
	channels     interfaces.ChannelManager
	pusher       interfaces.ProtocolEventHandler
	clientEvents interfaces.ClientEventHandler
}

func NewServer(channels interfaces.ChannelManager, pusher interfaces.ProtocolEventHandler, clientEvents interfaces.ClientEventHandler) *Server {
	return &Server{
		channels:     channels,
		pusher:       pusher,
		clientEvents: clientEvents,
	}
}

// Open 处理新连接。任何失败都会转成错误帧，不会传递给调用方。
func (s *Server) Open(conn interfaces.Connection) {
	if err := s.open(conn); err != nil {
		s.Error(conn, err)
	}
}

func (s *Server) open(conn interfaces.Connection) (err error) {
	defer recoverFailure(&err)

	if err := s.verifyOrigin(conn); err != nil {
		return err
	}

	conn.Touch()

	if err := s.pusher.Handle(conn, protocol.EventConnectionEstablished, protocol.EmptyData, nil); err != nil {
		return err
	}

	logger.Info("Connection Established", conn.ID())
	return nil
}

// Message 处理客户端发来的一帧
func (s *Server) Message(conn interfaces.Connection, message []byte) {
	logger.Info("Message Received", conn.ID())
	logger.Message(message)

	conn.Touch()

	if err := s.message(conn, message); err != nil {
		s.Error(conn, err)
		return
	}

	logger.Info("Message Handled", conn.ID())
}

func (s *Server) message(conn interfaces.Connection, message []byte) (err error) {
	defer recoverFailure(&err)

	msg, err := protocol.ParseMessage(message)
	if err != nil {
		return err
	}

	switch protocol.RouteOf(msg.Event) {
	case protocol.RouteControl:
		return s.pusher.Handle(conn, msg.Event, msg.DataOrEmpty(), msg.Channel)
	default:
		return s.clientEvents.Handle(conn, msg)
	}
}

// Close 先退订该连接的所有频道，再断开传输层
func (s *Server) Close(conn interfaces.Connection) {
	s.channels.
		For(conn.App()).
		UnsubscribeFromAll(conn)

	conn.Disconnect()

	logger.Info("Connection Closed", conn.ID())
}

// Error 向连接发送且只发送一个 pusher:error 帧
func (s *Server) Error(conn interfaces.Connection, err error) {
	failure := protocol.Classify(err)

	conn.Send(protocol.EncodeError(failure.Payload()))

	if failure.Kind == protocol.MalformedMessage {
		logger.Error("Message from " + conn.ID() + " resulted in an unknown error")
	} else {
		logger.Error("Message from " + conn.ID() + " resulted in a pusher error")
	}
	logger.Info(failure.Detail(), conn.ID())
}

func (s *Server) verifyOrigin(conn interfaces.Connection) error {
	app := conn.App()
	if app.AllowsAnyOrigin() {
		return nil
	}

	origin := conn.Origin()
	host := originHost(origin)
	if host == "" || !slices.Contains(app.AllowedOrigins, host) {
		return &protocol.HandshakeError{Origin: origin}
	}
	return nil
}

// originHost 解析失败或缺少 host 时返回空字符串
func originHost(origin string) string {
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func recoverFailure(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("recovered from panic: %v", r)
	}
}
