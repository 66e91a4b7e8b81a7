package escrow

import "errors"

// Code is a machine-readable reason for a rejected transition.
type Code string

const (
	// CodeNotFunded: a confirmation arrived before the escrow was funded.
	CodeNotFunded Code = "NOT_FUNDED"

	// CodeAlreadyReleased: the escrow has already released its funds.
	CodeAlreadyReleased Code = "ALREADY_RELEASED"

	// CodeInvalidActorForState: the actor cannot confirm in the current
	// state (e.g. P1 confirming while the escrow is already P1_CONFIRMED).
	CodeInvalidActorForState Code = "INVALID_ACTOR_FOR_STATE"

	// CodeInsufficientBalance: the buyer cannot cover the funding amount.
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// CodeAmountOutOfRange: the amount is not positive or would overflow
	// the int64 ceiling.
	CodeAmountOutOfRange Code = "AMOUNT_OUT_OF_RANGE"

	// CodeInvalidState: the operation is not legal in the current escrow
	// state (funding or toggling notarization outside CREATED).
	CodeInvalidState Code = "INVALID_STATE"
)

// Error is a rejected transition. The enclosing transaction is aborted
// with no partial effect whenever one is returned.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the transition rejection code from err, or "" when err
// is not a transition rejection.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
