package api

import (
	"net/http"

	internalws "go-pusher-gateway/internal/websocket"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	hub *internalws.Hub
}

func NewHealthHandler(hub *internalws.Hub) *HealthHandler {
	return &HealthHandler{hub: hub}
}

// Up 处理 GET /up
func (h *HealthHandler) Up(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.hub.Total(),
	})
}
