package inventory

import "errors"

var (
	// ErrItemNotFound indicates the item is not in the expected collection.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidTransition indicates a lifecycle transition that does not exist.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrInvalidInput indicates a request failing local preconditions.
	ErrInvalidInput = errors.New("invalid inventory input")
	// ErrInvalidAmount indicates a movement amount that is not positive.
	ErrInvalidAmount = errors.New("movement amount must be greater than zero")
	// ErrInvalidMovementType indicates a movement type other than STOCK_IN or STOCK_OUT.
	ErrInvalidMovementType = errors.New("movement type must be STOCK_IN or STOCK_OUT")
)
