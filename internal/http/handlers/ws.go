package handlers

import (
	"cups_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

// WS attaches a renderer to the session named by its token
func (h *Handler) WS(hub *ws.Hub) gin.HandlerFunc {
	return ws.HandleWS(hub, h.Sessions, h.AllowedOrigin)
}
