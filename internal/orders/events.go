package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/foodnest/order-engine/internal/kafka"
)

const EventStatusChanged = "OrderStatusChanged"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type StatusChangedPayload struct {
	OrderID       string `json:"order_id"`
	CustomerID    string `json:"customer_id"`
	Status        Status `json:"status"`
	PaymentStatus string `json:"payment_status,omitempty"`
	CourierName   string `json:"courier_name,omitempty"`
	TrackingID    string `json:"tracking_id,omitempty"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

// Broadcaster pushes externally visible transitions onto the status-change
// stream. Implementations must be fire-and-forget: a broadcast failure never
// fails the transition.
type Broadcaster interface {
	OrderStatusChanged(o *Order)
}

// KafkaBroadcaster publishes envelopes through the buffered async producer.
type KafkaBroadcaster struct {
	Producer *kafkax.Producer
	Service  string
}

func (b *KafkaBroadcaster) OrderStatusChanged(o *Order) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      b.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(StatusChangedPayload{
			OrderID:       o.ID,
			CustomerID:    o.CustomerID,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			CourierName:   o.CourierName,
			TrackingID:    o.CourierTrackingID,
			Email:         o.Email,
			Phone:         o.Phone,
		}),
	}
	b.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// NopBroadcaster is used where no stream is wired (tests, one-off tools).
type NopBroadcaster struct{}

func (NopBroadcaster) OrderStatusChanged(*Order) {}
