package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundResult - how a finished round ended
type RoundResult string

const (
	RoundResultWin       RoundResult = "win"
	RoundResultLoss      RoundResult = "loss"
	RoundResultRecovered RoundResult = "recovered"
)

// RoundRecord - one finished round of a game session
type RoundRecord struct {
	ID               string                 `db:"id" json:"id"`
	SessionKey       string                 `db:"session_key" json:"session_key"`
	RGSSession       string                 `db:"rgs_session" json:"-"`
	Bet              decimal.Decimal        `db:"bet" json:"bet"`
	Currency         string                 `db:"currency" json:"currency,omitempty"`
	PayoutMultiplier float64                `db:"payout_multiplier" json:"payout_multiplier"`
	Result           RoundResult            `db:"result" json:"result"`
	BalanceAfter     decimal.Decimal        `db:"balance_after" json:"balance_after"`
	ChosenCup        int                    `db:"chosen_cup" json:"chosen_cup"`
	RevealedCup      int                    `db:"revealed_cup" json:"revealed_cup"`
	Details          map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
}
