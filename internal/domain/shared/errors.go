package shared

import (
	"errors"
	"fmt"
)

// The four recoverable error kinds of the core. Domain packages declare
// specific errors wrapping one of these so callers can branch on the kind
// with errors.Is without knowing the concrete condition.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
)

// Movement rejection errors shared between the validator, the account
// manager, and the processing service that maps them to failure reasons.
var (
	ErrInvalidMovementType = fmt.Errorf("invalid movement type: %w", ErrInvalidOperation)
	ErrMissingAccount      = fmt.Errorf("movement is missing a required account: %w", ErrInvalidOperation)
	ErrInvalidCurrency     = fmt.Errorf("movement currency does not match the account: %w", ErrInvalidOperation)
	ErrAccountNotActive    = fmt.Errorf("account is not active: %w", ErrInvalidOperation)
	ErrInsufficientFunds   = fmt.Errorf("balance does not cover the withdrawal: %w", ErrInvalidOperation)
	ErrBelowMinimumBalance = fmt.Errorf("withdrawal would breach the minimum balance: %w", ErrInvalidOperation)
)
