package orders

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPlaced          Status = "PLACED"
	StatusConfirmed       Status = "CONFIRMED"
	StatusPacked          Status = "PACKED"
	StatusShipped         Status = "SHIPPED"
	StatusAtHub           Status = "AT_HUB"
	StatusOutForDelivery  Status = "OUT_FOR_DELIVERY"
	StatusDelivered       Status = "DELIVERED"
	StatusCancelRequested Status = "CANCEL_REQUESTED"
	StatusCancelled       Status = "CANCELLED"
)

// forwardRank defines the total order of the forward chain. Cancel states are
// deliberately absent.
var forwardRank = map[Status]int{
	StatusPlaced:         0,
	StatusConfirmed:      1,
	StatusPacked:         2,
	StatusShipped:        3,
	StatusAtHub:          4,
	StatusOutForDelivery: 5,
	StatusDelivered:      6,
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ShippingStarted reports whether the order has reached SHIPPED or any later
// forward state. Used to lock address/phone edits.
func (s Status) ShippingStarted() bool {
	r, ok := forwardRank[s]
	return ok && r >= forwardRank[StatusShipped]
}

// CanTransition implements the legal transition table. Forward progression is
// monotonic and may skip intermediate states, since courier feeds do.
// CANCEL_REQUESTED is reachable from any non-terminal forward state,
// CANCELLED from any non-terminal state.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	switch to {
	case StatusCancelRequested:
		_, forward := forwardRank[from]
		return forward
	case StatusCancelled:
		return true
	}
	rf, okf := forwardRank[from]
	rt, okt := forwardRank[to]
	return okf && okt && rt > rf
}

// ParseStatus validates a user-supplied status string.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case StatusPlaced, StatusConfirmed, StatusPacked, StatusShipped, StatusAtHub,
		StatusOutForDelivery, StatusDelivered, StatusCancelRequested, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
}
