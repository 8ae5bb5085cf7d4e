package handlers

import (
	"net/http"
	"strconv"

	"cups_webapp/internal/domain"
	"cups_webapp/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GetHistory lists the caller's finished rounds, newest first
func (h *Handler) GetHistory(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusOK, gin.H{"rounds": []*domain.RoundRecord{}, "enabled": false})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	key, _ := middleware.GetSessionKey(c)
	rounds, err := h.History.ListBySession(c.Request.Context(), key, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if rounds == nil {
		rounds = []*domain.RoundRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds, "enabled": true})
}
