package poker

import (
	"errors"
	"fmt"
)

// The engine distinguishes two error classes. Validation errors are
// caller-fault, raised before any state is mutated. Consistency errors mean an
// internal invariant broke; the table should be treated as poisoned.
var (
	ErrValidation  = errors.New("validation")
	ErrConsistency = errors.New("consistency")
)

var (
	ErrSeatOutOfRange = fmt.Errorf("%w: seat index out of range", ErrValidation)
	ErrSeatTaken      = fmt.Errorf("%w: seat already taken", ErrValidation)
	ErrSeatEmpty      = fmt.Errorf("%w: seat is empty", ErrValidation)
	ErrAlreadySeated  = fmt.Errorf("%w: player already seated", ErrValidation)
	ErrNotAtSeat      = fmt.Errorf("%w: player not at seat", ErrValidation)
	ErrNotSeated      = fmt.Errorf("%w: player not at table", ErrValidation)
	ErrInvalidBuyin   = fmt.Errorf("%w: buyin out of bounds", ErrValidation)
	ErrNotYourTurn    = fmt.Errorf("%w: not player's turn", ErrValidation)
	ErrNotInHand      = fmt.Errorf("%w: player not in hand", ErrValidation)
	ErrInvalidAction  = fmt.Errorf("%w: action not valid now", ErrValidation)
	ErrInvalidBetSize = fmt.Errorf("%w: invalid bet size", ErrValidation)
)

func consistencyf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}
