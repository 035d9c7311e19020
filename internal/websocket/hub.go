package websocket

import (
	"context"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub 按 App 记录当前在线的连接
type Hub struct {
	mu   sync.RWMutex
	apps map[string]map[string]*Connection
}

func NewHub() *Hub {
	return &Hub{apps: make(map[string]map[string]*Connection)}
}

// Register 在 App 超出连接配额时返回 protocol.ErrOverQuota
func (h *Hub) Register(conn *Connection) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	app := conn.App()
	conns, ok := h.apps[app.ID]
	if !ok {
		conns = make(map[string]*Connection)
		h.apps[app.ID] = conns
	}

	if app.MaxConnections > 0 && len(conns) >= app.MaxConnections {
		logger.L.Warn("Application is over connection quota",
			zap.String("app", app.ID),
			zap.Int("max", app.MaxConnections))
		return protocol.ErrOverQuota
	}

	conns[conn.ID()] = conn
	logger.L.Debug("Connection registered", zap.String("app", app.ID), zap.String("connection_id", conn.ID()))
	return nil
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	appID := conn.App().ID
	conns, ok := h.apps[appID]
	if !ok {
		return
	}
	if registered, ok := conns[conn.ID()]; ok && registered == conn {
		delete(conns, conn.ID())
		logger.L.Debug("Connection unregistered", zap.String("app", appID), zap.String("connection_id", conn.ID()))
	}
	if len(conns) == 0 {
		delete(h.apps, appID)
	}
}

func (h *Hub) Count(appID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.apps[appID])
}

func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.apps {
		total += len(conns)
	}
	return total
}

// CloseAll 断开所有连接，用于优雅退出
func (h *Hub) CloseAll() {
	conns := h.snapshot()
	for _, conn := range conns {
		conn.Disconnect()
	}
	logger.L.Info("Disconnected all connections", zap.Int("count", len(conns)))
}

// PruneStale 断开超过 maxIdle 没有活动的连接，返回断开的数量。
// 从未 Touch 过的连接（例如来源校验失败）同样视为过期。
func (h *Hub) PruneStale(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	pruned := 0
	for _, conn := range h.snapshot() {
		if conn.LastSeenAt().Before(cutoff) {
			logger.L.Info("Pruning stale connection",
				zap.String("app", conn.App().ID),
				zap.String("connection_id", conn.ID()))
			conn.Disconnect()
			pruned++
		}
	}
	return pruned
}

// RunPruner 每隔 interval 清理一次过期连接，直到 ctx 结束
func (h *Hub) RunPruner(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.PruneStale(maxIdle); n > 0 {
				logger.L.Info("Pruned stale connections", zap.Int("count", n))
			}
		}
	}
}

func (h *Hub) snapshot() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*Connection, 0)
	for _, appConns := range h.apps {
		for _, conn := range appConns {
			conns = append(conns, conn)
		}
	}
	return conns
}
