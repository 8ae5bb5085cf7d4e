package handlers

import (
	"context"
	"errors"
	"net/http"

	"cups_webapp/internal/autoplay"
	"cups_webapp/internal/logger"
	"cups_webapp/internal/rgs"
	"cups_webapp/internal/round"
	"cups_webapp/internal/session"

	"github.com/gin-gonic/gin"
)

// statusFor maps session, round and wallet errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, round.ErrBetNotAllowed),
		errors.Is(err, round.ErrInvalidCup),
		errors.Is(err, autoplay.ErrInvalidRounds):
		return http.StatusBadRequest
	case errors.Is(err, round.ErrRoundInFlight),
		errors.Is(err, session.ErrAutoPlayRunning),
		errors.Is(err, round.ErrPickNotOpen),
		errors.Is(err, round.ErrAlreadyPicked):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return 499
	}

	switch rgs.KindOf(err) {
	case rgs.KindConfiguration:
		return http.StatusBadRequest
	case rgs.KindProtocol:
		return http.StatusUnprocessableEntity
	case rgs.KindActiveBet:
		return http.StatusConflict
	case rgs.KindTransport:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var rgsErr *rgs.Error
	if errors.As(err, &rgsErr) {
		body["kind"] = rgsErr.Kind.String()
		if rgsErr.Code != "" {
			body["code"] = rgsErr.Code
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "route", c.FullPath(), "error", err)
	}
	c.JSON(status, body)
}
