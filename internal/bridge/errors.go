package bridge

import (
	"errors"
	"fmt"
)

// Code is one of the stable textual error identifiers callers can test for
// exactly, independent of the human-readable message.
type Code string

const (
	CodeMinValidatorsNotMet   Code = "MinValidatorsNotMet"
	CodeMaxValidatorsExceeded Code = "MaxValidatorsExceeded"
	CodeValidatorsNotUnique   Code = "ValidatorsNotUnique"
	CodeNotEnoughSigners      Code = "NotEnoughSigners"
	CodeInvalidSigner         Code = "InvalidSigner"
	CodeInsufficientFunds     Code = "InsufficientFunds"
	CodeAccountNotInitialized Code = "AccountNotInitialized"
)

// Error wraps one of the Code values above. Runtime-surface errors (account
// already exists, rent shortfall) and token-layer errors (internal/ledger's
// Err* values) are never wrapped in Error; they propagate verbatim.
type Error struct {
	Code Code
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge: %s", e.Code)
}

func newErr(code Code) error {
	return &Error{Code: code}
}

// Is reports whether err is a *Error carrying the given code.
func Is(err error, code Code) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
