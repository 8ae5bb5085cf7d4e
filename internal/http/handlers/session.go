package handlers

import (
	"net/http"

	"cups_webapp/internal/http/middleware"
	"cups_webapp/internal/rgs"
	"cups_webapp/internal/service"
	"cups_webapp/internal/session"

	"github.com/gin-gonic/gin"
)

// CreateSession opens a game session from the launch query string
// (rgs_url, sessionID, language, currency, mode) and returns its token.
func (h *Handler) CreateSession(c *gin.Context) {
	launch, err := rgs.ConfigFromQuery(c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}

	s, err := h.Sessions.Create(c.Request.Context(), launch)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := service.GenerateSessionToken(s.Key, h.TokenTTL)
	if err != nil {
		h.Sessions.Remove(s.Key)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"state": s.Snapshot(),
	})
}

// CloseSession ends the caller's session
func (h *Handler) CloseSession(c *gin.Context) {
	key, _ := middleware.GetSessionKey(c)
	if !h.Sessions.Remove(key) {
		writeError(c, session.ErrSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// State returns the session snapshot for the UI
func (h *Handler) State(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	key, _ := middleware.GetSessionKey(c)
	s, err := h.Sessions.Get(key)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}
