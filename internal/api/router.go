package api

import (
	"go-pusher-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter 注册所有 HTTP 路由
func NewRouter(wsHandler *WSHandler, healthHandler *HealthHandler, appHandler *AppHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.GinZapLogger())

	r.GET("/up", healthHandler.Up)
	r.GET("/app/:appKey", wsHandler.HandleConnection)

	apps := r.Group("/apps/:appId")
	{
		apps.GET("/connections", appHandler.Connections)
		apps.GET("/channels", appHandler.Channels)
	}

	return r
}
