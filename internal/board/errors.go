package board

import "errors"

// Error kinds surfaced by the board engine. Handlers classify with errors.Is;
// every failure leaves the enclosing transaction rolled back and the board
// invariants intact. Only ErrConflict is retryable, and the storage layer has
// already exhausted its bounded retries by the time it surfaces.
var (
	ErrNotFound           = errors.New("not found")
	ErrLimitExceeded      = errors.New("limit exceeded")
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrDuplicatePosition  = errors.New("duplicate position")
	ErrStatusConflict     = errors.New("fixed status already taken")
	ErrIllegalTransition  = errors.New("illegal transition")
	ErrNonEmptyColumn     = errors.New("column not empty")
	ErrProtected          = errors.New("column is protected")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
)
