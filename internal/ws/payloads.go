package ws

import (
	"cups_webapp/internal/round"

	"github.com/shopspring/decimal"
)

type CupPayload struct {
	Cup int `json:"cup"`
}

type SwapPayload struct {
	A int `json:"a"`
	B int `json:"b"`
}

type InteractivePayload struct {
	Enabled bool `json:"enabled"`
}

type StatePayload struct {
	RoundID string      `json:"round_id,omitempty"`
	State   round.State `json:"state"`
}

type BalancePayload struct {
	Balance decimal.Decimal `json:"balance"`
	Phase   round.Phase     `json:"phase"`
}

type AutoPlayPayload struct {
	Running   bool        `json:"running"`
	Remaining int         `json:"remaining"`
	Phase     round.Phase `json:"phase,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
