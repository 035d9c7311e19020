package websocket

// 连接管理接口
// Hub实现
type ConnectionManager interface {
	Register(conn *Connection) error
	Unregister(conn *Connection)
}
