package rgs

import "github.com/shopspring/decimal"

// Balance as reported by the server, in API units. Amount is nil when the
// server sent null or omitted it.
type Balance struct {
	Amount *int64 `json:"amount"`
}

// Value returns the balance in currency units and whether it was present
func (b Balance) Value() (decimal.Decimal, bool) {
	if b.Amount == nil {
		return decimal.Zero, false
	}
	return FromAPIAmount(*b.Amount), true
}

type AuthenticateResponse struct {
	Balance Balance `json:"balance"`
}

// Round describes the authoritative result of a play request
type Round struct {
	PayoutMultiplier float64 `json:"payoutMultiplier"`
	State            string  `json:"state,omitempty"`
}

// IsWin reports whether the round paid out
func (r Round) IsWin() bool {
	return r.PayoutMultiplier > 0
}

type PlayResponse struct {
	Balance Balance `json:"balance"`
	Round   Round   `json:"round"`
}

type EndRoundResponse struct {
	Balance Balance `json:"balance"`
}

type authenticateRequest struct {
	SessionID string `json:"sessionID"`
	Language  string `json:"language"`
}

type playRequest struct {
	Mode      string `json:"mode"`
	Currency  string `json:"currency"`
	SessionID string `json:"sessionID"`
	Amount    int64  `json:"amount"`
}

type endRoundRequest struct {
	SessionID string `json:"sessionID"`
}

// errorPayload is the server's error body
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
