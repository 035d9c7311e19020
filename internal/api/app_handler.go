package api

import (
	"net/http"

	"go-pusher-gateway/internal/interfaces"
	"go-pusher-gateway/internal/model"
	"go-pusher-gateway/internal/service"
	internalws "go-pusher-gateway/internal/websocket"
	"go-pusher-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppHandler 提供按 App 查询的统计接口
type AppHandler struct {
	apps     interfaces.AppProvider
	hub      *internalws.Hub
	channels interfaces.ChannelManager
}

func NewAppHandler(apps interfaces.AppProvider, hub *internalws.Hub, channels interfaces.ChannelManager) *AppHandler {
	return &AppHandler{
		apps:     apps,
		hub:      hub,
		channels: channels,
	}
}

// Connections 处理 GET /apps/:appId/connections
func (h *AppHandler) Connections(c *gin.Context) {
	app, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": h.hub.Count(app.ID)})
}

// Channels 处理 GET /apps/:appId/channels
func (h *AppHandler) Channels(c *gin.Context) {
	app, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": h.channels.For(app).Channels()})
}

func (h *AppHandler) find(c *gin.Context) (*model.App, bool) {
	appID := c.Param("appId")

	app, err := h.apps.FindByID(appID)
	if err == nil && app != nil {
		return app, true
	}
	if err == nil || service.IsNotFound(err) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Application does not exist"})
		return nil, false
	}

	logger.L.Error("Failed to look up application", zap.String("appId", appID), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up application"})
	return nil, false
}
