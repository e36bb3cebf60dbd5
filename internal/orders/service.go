package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/inventory"
)

// TrackingRegistrar is the narrow slice of the courier client the order
// service needs.
type TrackingRegistrar interface {
	RegisterTracking(ctx context.Context, courier, trackingID string) error
}

// ObjectStore persists proof-of-delivery images; the returned URL is opaque.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// Service owns the order aggregate and enforces the status state machine.
type Service struct {
	Repo      Repository
	Ledger    inventory.Ledger
	Tracker   TrackingRegistrar
	Broadcast Broadcaster
	Store     ObjectStore
	Log       *zap.Logger
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.Repo.Get(ctx, orderID)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

// ListFiltered narrows the admin listing by customer or phone; both empty
// means everything.
func (s *Service) ListFiltered(ctx context.Context, customerID, phone string) ([]Order, error) {
	switch {
	case customerID != "":
		return s.Repo.ListByCustomer(ctx, customerID)
	case phone != "":
		return s.Repo.ListByPhone(ctx, phone)
	default:
		return s.Repo.ListAll(ctx)
	}
}

// UpdateStatus applies an admin-driven transition. The raw status string is
// validated, the transition checked against the table, and the change
// broadcast after persisting.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status, actor, message, reason string) (*Order, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	now := time.Now()
	o.SetStatus(to, now)
	if message != "" {
		o.AddHistory(message, now, actor, reason)
	}
	if err := s.Repo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.publish(o)
	return o, nil
}

// RequestCancel moves an order into CANCEL_REQUESTED on behalf of its owner.
func (s *Service) RequestCancel(ctx context.Context, orderID, callerID string) error {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.CustomerID != callerID {
		return ErrUnauthorized
	}
	if !CanTransition(o.Status, StatusCancelRequested) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusCancelRequested)
	}
	o.SetStatus(StatusCancelRequested, time.Now())
	if err := s.Repo.Update(ctx, o); err != nil {
		return err
	}
	s.publish(o)
	return nil
}

// ApproveCancel finalises a pending cancellation request. Stock goes back
// before the order is marked CANCELLED; a failed release aborts the approval.
func (s *Service) ApproveCancel(ctx context.Context, orderID string) error {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusCancelRequested {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusCancelled)
	}
	return s.cancel(ctx, o)
}

// DirectCancel is the owner's self-service cancellation. Already-cancelled
// orders are a no-op; only DELIVERED blocks it.
func (s *Service) DirectCancel(ctx context.Context, orderID, callerID string) error {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.CustomerID != callerID {
		return ErrUnauthorized
	}
	if o.Status == StatusCancelled {
		return nil
	}
	if o.Status == StatusDelivered {
		return fmt.Errorf("%w: already delivered", ErrCancelBlocked)
	}
	return s.cancel(ctx, o)
}

func (s *Service) cancel(ctx context.Context, o *Order) error {
	if !o.StockRestored {
		if err := s.restoreStock(ctx, o); err != nil {
			// do not mark CANCELLED while stock silently failed to return
			return fmt.Errorf("restore stock for order %s: %w", o.ID, err)
		}
		o.StockRestored = true
	}
	o.SetStatus(StatusCancelled, time.Now())
	if err := s.Repo.Update(ctx, o); err != nil {
		return err
	}
	s.publish(o)
	return nil
}

// restoreStock releases every product line once. Bundle lines were never
// reserved, so there is nothing to return for them.
func (s *Service) restoreStock(ctx context.Context, o *Order) error {
	for _, it := range o.Items {
		if it.Kind != KindProduct {
			continue
		}
		if err := s.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCourierDetails attaches courier info, marks the order SHIPPED and
// registers the tracking id with the courier API (best-effort).
func (s *Service) UpdateCourierDetails(ctx context.Context, orderID, courierName, trackingID, trackURL string) error {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, StatusShipped) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusShipped)
	}
	now := time.Now()
	o.CourierName = courierName
	o.CourierTrackingID = trackingID
	o.CourierTrackURL = trackURL
	o.SetStatus(StatusShipped, now)
	o.AddHistory("Order shipped via "+courierName, now, "system", "")
	if err := s.Repo.Update(ctx, o); err != nil {
		return err
	}
	if s.Tracker != nil {
		if err := s.Tracker.RegisterTracking(ctx, courierName, trackingID); err != nil {
			s.Log.Warn("tracking registration failed",
				zap.String("order_id", o.ID), zap.String("tracking_id", trackingID), zap.Error(err))
		}
	}
	s.publish(o)
	return nil
}

// UpdateAddress changes the shipping address; blocked once shipping started.
func (s *Service) UpdateAddress(ctx context.Context, orderID, callerID, address string) error {
	return s.editContact(ctx, orderID, callerID, func(o *Order) { o.Address = address })
}

// UpdatePhone changes the contact phone; blocked once shipping started.
func (s *Service) UpdatePhone(ctx context.Context, orderID, callerID, phone string) error {
	return s.editContact(ctx, orderID, callerID, func(o *Order) { o.Phone = phone })
}

func (s *Service) editContact(ctx context.Context, orderID, callerID string, apply func(*Order)) error {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.CustomerID != callerID {
		return ErrUnauthorized
	}
	if o.Status.ShippingStarted() || o.Status.Terminal() {
		return ErrEditLocked
	}
	apply(o)
	return s.Repo.Update(ctx, o)
}

// Remove hard-deletes an order. Administrative escape hatch, not part of the
// normal lifecycle.
func (s *Service) Remove(ctx context.Context, orderID string) error {
	return s.Repo.Delete(ctx, orderID)
}

// AttachPODImage stores a proof-of-delivery image and records it on the
// timeline.
func (s *Service) AttachPODImage(ctx context.Context, orderID string, data []byte, contentType string) (string, error) {
	o, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	url, err := s.Store.Store(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("store pod image: %w", err)
	}
	o.PODImageURLs = append(o.PODImageURLs, url)
	o.AddHistory("POD uploaded", time.Now(), "system", "")
	if err := s.Repo.Update(ctx, o); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) publish(o *Order) {
	if s.Broadcast != nil {
		s.Broadcast.OrderStatusChanged(o)
	}
}
