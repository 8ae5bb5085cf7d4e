package handlers

import (
	"context"
	"time"

	"cups_webapp/internal/domain"
	"cups_webapp/internal/session"
)

// HistoryStore lists persisted rounds of a session
type HistoryStore interface {
	ListBySession(ctx context.Context, sessionKey string, limit int) ([]*domain.RoundRecord, error)
}

type Handler struct {
	Sessions *session.Manager
	// History is nil when no database is configured
	History       HistoryStore
	TokenTTL      time.Duration
	AllowedOrigin string
}

func NewHandler(sessions *session.Manager, history HistoryStore, tokenTTL time.Duration) *Handler {
	return &Handler{
		Sessions: sessions,
		History:  history,
		TokenTTL: tokenTTL,
	}
}
