package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/courier"
	"github.com/foodnest/order-engine/internal/orders"
)

// EventFetcher is the polling slice of the courier client.
type EventFetcher interface {
	FetchEvents(ctx context.Context, trackingID string) ([]courier.TrackingEvent, error)
}

// Reconciler folds courier tracking feeds back into order state. The same
// logic serves both the push webhook and the periodic poll, so replays and
// overlap between the two channels are harmless.
type Reconciler struct {
	Repo      orders.Repository
	Courier   EventFetcher
	Broadcast orders.Broadcaster
	Interval  time.Duration
	Log       *zap.Logger
}

// ApplyCourierEvent merges one tracking event into the matching order.
//
// Unknown tracking ids are acknowledged and dropped: the courier keeps
// retrying otherwise, and the id may belong to a deleted order. Events whose
// text is already on the timeline are skipped, which makes webhook plus poll
// delivery idempotent.
func (r *Reconciler) ApplyCourierEvent(ctx context.Context, trackingID string, ev courier.TrackingEvent) error {
	o, err := r.Repo.GetByTrackingID(ctx, trackingID)
	if errors.Is(err, orders.ErrNotFound) {
		r.Log.Info("courier event for unknown tracking id dropped",
			zap.String("tracking_id", trackingID))
		return nil
	}
	if err != nil {
		return err
	}
	if o.HasMessage(ev.Status) {
		return nil
	}

	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	o.AddHistory(ev.Status, at, "courier", "")

	if to, ok := mapStatus(ev.Status); ok && orders.CanTransition(o.Status, to) {
		o.SetStatus(to, at)
	}
	if err := r.Repo.Update(ctx, o); err != nil {
		return err
	}
	if r.Broadcast != nil {
		r.Broadcast.OrderStatusChanged(o)
	}
	return nil
}

// Sweep polls the courier for every order that has a tracking id and is not
// terminal. One order's failure never stops the sweep.
func (r *Reconciler) Sweep(ctx context.Context) {
	list, err := r.Repo.ListWithTracking(ctx)
	if err != nil {
		r.Log.Error("tracking sweep listing failed", zap.Error(err))
		return
	}
	for i := range list {
		o := &list[i]
		events, err := r.Courier.FetchEvents(ctx, o.CourierTrackingID)
		if err != nil {
			r.Log.Warn("tracking fetch failed",
				zap.String("order_id", o.ID),
				zap.String("tracking_id", o.CourierTrackingID), zap.Error(err))
			continue
		}
		for _, ev := range events {
			if err := r.ApplyCourierEvent(ctx, o.CourierTrackingID, ev); err != nil {
				r.Log.Warn("apply courier event failed",
					zap.String("order_id", o.ID), zap.Error(err))
				break
			}
		}
	}
}

// Run sweeps on a fixed interval until the context ends.
func (r *Reconciler) Run(ctx context.Context) {
	iv := r.Interval
	if iv <= 0 {
		iv = 10 * time.Minute
	}
	t := time.NewTicker(iv)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// mapStatus derives an order status from the free-text courier status.
// Delivered is checked first so "out for delivery, delivered" style texts
// cannot regress an order. Unmatched texts only land on the timeline.
func mapStatus(text string) (orders.Status, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "delivered"):
		return orders.StatusDelivered, true
	case strings.Contains(t, "out for delivery"):
		return orders.StatusOutForDelivery, true
	case strings.Contains(t, "hub"):
		return orders.StatusAtHub, true
	case strings.Contains(t, "shipped"), strings.Contains(t, "picked up"):
		return orders.StatusShipped, true
	default:
		return "", false
	}
}
