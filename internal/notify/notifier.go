package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/foodnest/order-engine/internal/kafka"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/redisx"
)

// Notifier fans a lifecycle change out to the customer. Delivery is
// at-least-once; templates must read idempotently.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, ev orders.StatusChangedPayload) error
	SendShipmentNotice(ctx context.Context, ev orders.StatusChangedPayload) error
	SendStatusUpdate(ctx context.Context, ev orders.StatusChangedPayload) error
}

// LogNotifier writes the notification instead of sending it. Stands in until
// an email/SMS provider is wired.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) SendOrderConfirmation(_ context.Context, ev orders.StatusChangedPayload) error {
	n.Log.Info("order confirmation",
		zap.String("order_id", ev.OrderID), zap.String("email", ev.Email))
	return nil
}

func (n *LogNotifier) SendShipmentNotice(_ context.Context, ev orders.StatusChangedPayload) error {
	n.Log.Info("shipment notice",
		zap.String("order_id", ev.OrderID), zap.String("email", ev.Email),
		zap.String("courier", ev.CourierName), zap.String("tracking_id", ev.TrackingID))
	return nil
}

func (n *LogNotifier) SendStatusUpdate(_ context.Context, ev orders.StatusChangedPayload) error {
	n.Log.Info("status update",
		zap.String("order_id", ev.OrderID), zap.String("status", string(ev.Status)),
		zap.String("email", ev.Email))
	return nil
}

// Consumer turns status-change events into notifications. Replays are dropped
// through a redis dedup key per event id.
type Consumer struct {
	Service  string
	RDB      *redis.Client
	Notifier Notifier
	Log      *zap.Logger
}

// Handle implements the broker handler. A nil return commits the offset.
func (c *Consumer) Handle(ctx context.Context, m kafkago.Message) error {
	var ev orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &ev); err != nil {
		c.Log.Warn("bad envelope dropped", zap.Error(err))
		return nil
	}
	if ev.EventType != orders.EventStatusChanged {
		return nil
	}

	key := fmt.Sprintf(redisx.KeyDedup, c.Service, ev.EventID)
	fresh, err := c.RDB.SetNX(ctx, key, 1, redisx.TTLDedup).Result()
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !fresh {
		return nil
	}

	pl, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](ev.Payload)
	if err != nil {
		c.Log.Warn("bad payload dropped", zap.String("event_id", ev.EventID), zap.Error(err))
		return nil
	}

	switch pl.Status {
	case orders.StatusPlaced:
		err = c.Notifier.SendOrderConfirmation(ctx, pl)
	case orders.StatusShipped:
		err = c.Notifier.SendShipmentNotice(ctx, pl)
	default:
		err = c.Notifier.SendStatusUpdate(ctx, pl)
	}
	if err != nil {
		// release the dedup key so a retry is not silently swallowed
		c.RDB.Del(ctx, key)
		return err
	}
	return nil
}
