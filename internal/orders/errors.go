package orders

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrUnauthorized      = errors.New("order belongs to another customer")
	ErrEditLocked        = errors.New("order can no longer be edited after shipping")
	ErrCancelBlocked     = errors.New("order cannot be cancelled")
)
