package handlers

import (
	"net/http"

	"cups_webapp/internal/autoplay"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type roundRequest struct {
	Bet *decimal.Decimal `json:"bet"`
}

type pickRequest struct {
	Cup *int `json:"cup"`
}

type autoPlayRequest struct {
	Rounds     int              `json:"rounds" binding:"required,min=1"`
	Bet        *decimal.Decimal `json:"bet"`
	StopOnWin  bool             `json:"stop_on_win"`
	StopOnLoss bool             `json:"stop_on_loss"`
}

// StartRound plays a bet and returns once the cups accept a pick
func (h *Handler) StartRound(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req roundRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	bet := s.Snapshot().Bets.Default
	if req.Bet != nil {
		bet = *req.Bet
	}

	roundID, err := s.StartRound(c.Request.Context(), bet)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"round_id": roundID,
		"bet":      bet,
		"state":    s.Snapshot(),
	})
}

// Pick chooses a cup for the round awaiting a pick
func (h *Handler) Pick(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req pickRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Cup == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cup required"})
		return
	}

	if err := s.Pick(*req.Cup); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"cup": *req.Cup})
}

func (h *Handler) StartAutoPlay(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req autoPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rounds must be at least 1"})
		return
	}

	cfg := autoplay.Config{
		Rounds:     req.Rounds,
		Bet:        s.Snapshot().Bets.Default,
		StopOnWin:  req.StopOnWin,
		StopOnLoss: req.StopOnLoss,
	}
	if req.Bet != nil {
		cfg.Bet = *req.Bet
	}

	if err := s.StartAutoPlay(cfg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"autoplay": cfg})
}

func (h *Handler) StopAutoPlay(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopping": s.StopAutoPlay()})
}
