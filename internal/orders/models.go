package orders

import "time"

// Line item kinds. Only product lines participate in stock reservation;
// bundle lines are priced but not reserved.
const (
	KindProduct = "PRODUCT"
	KindBundle  = "BUNDLE"
)

// LineItem is a priced cart line. Price fields are captured at order-creation
// time and never change afterwards.
type LineItem struct {
	Kind            string  `json:"kind"`
	ProductID       string  `json:"product_id,omitempty"`
	BundleID        string  `json:"bundle_id,omitempty"`
	Name            string  `json:"name"`
	Qty             int     `json:"qty"`
	BaseMRP         float64 `json:"base_mrp"`
	SellingPrice    float64 `json:"selling_price"`
	DiscountPercent int     `json:"discount_percent"`
	OfferLabel      string  `json:"offer_label,omitempty"`
}

// HistoryEntry is one line of the delivery timeline shown to customers.
type HistoryEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type Order struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`

	Items []LineItem `json:"items"`

	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	Tax        float64 `json:"tax"`
	Shipping   float64 `json:"shipping"`
	GrandTotal float64 `json:"grand_total"`
	CouponCode string  `json:"coupon_code,omitempty"`

	Status        Status `json:"status"`
	PaymentStatus string `json:"payment_status,omitempty"`

	GatewayOrderID   string `json:"gateway_order_id,omitempty"`
	GatewaySignature string `json:"gateway_signature,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`

	CourierName       string `json:"courier_name,omitempty"`
	CourierTrackingID string `json:"courier_tracking_id,omitempty"`
	CourierTrackURL   string `json:"courier_track_url,omitempty"`

	StockRestored bool `json:"stock_restored"`

	Timestamps   map[Status]time.Time `json:"status_timestamps"`
	DeliveryLog  []HistoryEntry       `json:"delivery_log"`
	PODImageURLs []string             `json:"pod_image_urls,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SetStatus moves the order to s and records the transition time. The
// timestamp map is append-only: a key already present is never overwritten.
func (o *Order) SetStatus(s Status, at time.Time) {
	o.Status = s
	if o.Timestamps == nil {
		o.Timestamps = make(map[Status]time.Time)
	}
	if _, seen := o.Timestamps[s]; !seen {
		o.Timestamps[s] = at
	}
}

// AddHistory appends a delivery timeline entry.
func (o *Order) AddHistory(message string, at time.Time, actor, reason string) {
	o.DeliveryLog = append(o.DeliveryLog, HistoryEntry{
		Message:   message,
		Timestamp: at,
		Actor:     actor,
		Reason:    reason,
	})
}

// HasMessage reports whether the timeline already carries exactly this text.
// Courier feeds are deduplicated on it.
func (o *Order) HasMessage(message string) bool {
	for _, e := range o.DeliveryLog {
		if e.Message == message {
			return true
		}
	}
	return false
}
