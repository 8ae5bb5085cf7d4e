package rgs

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind tags a wallet error
type Kind int

const (
	// KindConfiguration: launch parameters (server URL, session) are missing
	KindConfiguration Kind = iota + 1
	// KindTransport: the request failed or returned a non-success status without an error payload
	KindTransport
	// KindProtocol: the server answered with a structured error payload
	KindProtocol
	// KindActiveBet: the server still holds an open bet for this session
	KindActiveBet
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindActiveBet:
		return "active_bet"
	default:
		return "unknown"
	}
}

var activeBetPattern = regexp.MustCompile(`(?i)active bet`)

// Error is returned by every Client call
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("rgs %s: %s: %s", e.Op, e.Code, e.Message)
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("rgs %s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("rgs %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("rgs %s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("rgs %s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsActiveBetError reports whether err carries the server's active bet
// rejection: code ERR_VAL with a message matching "active bet" in any case.
func IsActiveBetError(err error) bool {
	var rgsErr *Error
	if !errors.As(err, &rgsErr) || rgsErr == nil {
		return false
	}
	return isActiveBet(rgsErr.Code, rgsErr.Message)
}

// KindOf returns the tag of a wallet error, or 0 for any other error
func KindOf(err error) Kind {
	var rgsErr *Error
	if errors.As(err, &rgsErr) && rgsErr != nil {
		return rgsErr.Kind
	}
	return 0
}

func isActiveBet(code, message string) bool {
	return code == CodeValidation && activeBetPattern.MatchString(message)
}

func configurationError(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

func transportError(op string, status int, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Status: status, Err: err}
}

func payloadError(op string, status int, p errorPayload) *Error {
	kind := KindProtocol
	if isActiveBet(p.Error, p.Message) {
		kind = KindActiveBet
	}
	return &Error{Kind: kind, Op: op, Status: status, Code: p.Error, Message: p.Message}
}
