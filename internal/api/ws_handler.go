package api

import (
	"net/http"
	"time"

	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/middleware"
	"go-pusher-gateway/internal/protocol"
	"go-pusher-gateway/internal/pusher"
	"go-pusher-gateway/internal/service"
	internalws "go-pusher-gateway/internal/websocket"
	"go-pusher-gateway/pkg/config"
	"go-pusher-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 来源校验在协议层按 App 白名单完成
		return true
	},
}

type WSHandler struct {
	apps       interfaces.AppProvider
	hub        *internalws.Hub
	msgHandler interfaces.MessageHandler
	cfg        config.WebSocketConfig
}

func NewWSHandler(apps interfaces.AppProvider, hub *internalws.Hub, msgHandler interfaces.MessageHandler, cfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		apps:       apps,
		hub:        hub,
		msgHandler: msgHandler,
		cfg:        cfg,
	}
}

// HandleConnection 处理 GET /app/:appKey
func (h *WSHandler) HandleConnection(c *gin.Context) {
	appKey := c.Param("appKey")

	app, err := h.apps.FindByKey(appKey)
	if err != nil && !service.IsNotFound(err) {
		logger.L.Error("Failed to look up application", zap.String("appKey", appKey), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up application"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Error("Failed to upgrade WebSocket connection", zap.String("appKey", appKey), zap.Error(err))
		return
	}

	if app == nil {
		logger.L.Warn("Rejecting connection for unknown application", zap.String("appKey", appKey))
		h.reject(ws, protocol.ErrApplicationNotFound)
		return
	}

	conn := internalws.NewConnection(
		pusher.NewSocketID(),
		app,
		c.GetHeader("Origin"),
		ws,
		h.msgHandler,
		h.hub,
		internalws.OptionsFor(h.cfg, app),
	)

	if err := h.hub.Register(conn); err != nil {
		conn.Send(protocol.EncodeError(protocol.Classify(err).Payload()))
		conn.Disconnect()
		go conn.WritePump()
		return
	}
	logger.L.Info("WebSocket connection upgraded",
		zap.String("app", app.ID),
		zap.String("connection_id", conn.ID()),
		zap.String("requestID", c.GetString(middleware.RequestIDKey)))

	h.msgHandler.Open(conn)

	go conn.WritePump()
	go conn.ReadPump()
}

// 连接尚未建立时直接写出错误帧并关闭
func (h *WSHandler) reject(ws *websocket.Conn, err error) {
	defer ws.Close()

	deadline := time.Now().Add(h.cfg.WriteWait())
	ws.SetWriteDeadline(deadline)
	if err := ws.WriteMessage(websocket.TextMessage, protocol.EncodeError(protocol.Classify(err).Payload())); err != nil {
		logger.L.Debug("Failed to write rejection", zap.Error(err))
		return
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline)
}
