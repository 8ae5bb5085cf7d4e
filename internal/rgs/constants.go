package rgs

import "github.com/shopspring/decimal"

const (
	// APIMultiplier scales currency units to the integer amounts used on the wire
	// (1 unit = 1,000,000 API units)
	APIMultiplier = 1_000_000

	// DefaultLanguage is used when the launch URL carries no language
	DefaultLanguage = "en"

	// DefaultMode is the bet mode sent with play requests when none is given
	DefaultMode = "BASE"

	// CodeValidation is the error code the server uses for rejected requests,
	// including the "active bet" desync
	CodeValidation = "ERR_VAL"
)

// Wallet endpoints
const (
	PathAuthenticate = "/wallet/authenticate"
	PathPlay         = "/wallet/play"
	PathEndRound     = "/wallet/end-round"
)

// Launch query parameters
const (
	ParamURL      = "rgs_url"
	ParamSession  = "sessionID"
	ParamLanguage = "language"
	ParamCurrency = "currency"
	ParamMode     = "mode"
)

var apiMultiplier = decimal.NewFromInt(APIMultiplier)

// ToAPIAmount converts a currency amount to wire units
func ToAPIAmount(amount decimal.Decimal) int64 {
	return amount.Mul(apiMultiplier).Round(0).IntPart()
}

// FromAPIAmount converts wire units to a currency amount
func FromAPIAmount(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(apiMultiplier)
}
