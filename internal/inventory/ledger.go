package inventory

import (
	"context"
	"errors"
	"time"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidQty   = errors.New("quantity must be positive")
)

// Actors recorded on stock changes.
const (
	ActorSystem = "system"
	ActorAdmin  = "admin"
	ActorUser   = "user"
)

// Reasons recorded on stock changes.
const (
	ReasonOrderReservation = "order_reservation"
	ReasonCancelRestore    = "cancel_restore"
	ReasonManualUpdate     = "manual_update"
	ReasonAutoAdjust       = "auto_adjust"
)

type Item struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	OutOfStock        bool      `json:"out_of_stock"`
	MRP               float64   `json:"mrp"`
	SellingPrice      float64   `json:"selling_price"`
	OfferLabel        string    `json:"offer_label,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StockChange is an append-only record written on every ledger mutation.
type StockChange struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
	Delta     int       `json:"delta"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger owns the per-item stock counters. TryReserve must behave as a
// conditional atomic decrement: two concurrent reservations for the last unit
// cannot both succeed.
type Ledger interface {
	// TryReserve decrements stock by qty only if current stock >= qty.
	// Returns false with no mutation when stock is insufficient.
	TryReserve(ctx context.Context, itemID string, qty int) (bool, error)

	// Release unconditionally increments stock by qty, compensating a prior
	// successful reservation.
	Release(ctx context.Context, itemID string, qty int) error

	// SetStock sets the absolute stock level (administrative).
	SetStock(ctx context.Context, itemID string, newStock int) error

	// AdjustStock applies a delta, clamped so stock never goes negative
	// (administrative).
	AdjustStock(ctx context.Context, itemID string, delta int) error

	Get(ctx context.Context, itemID string) (*Item, error)
	List(ctx context.Context) ([]Item, error)

	// LowStock returns items at or below their low-stock threshold.
	LowStock(ctx context.Context) ([]Item, error)

	// Changes returns the stock change log for one item, newest first.
	Changes(ctx context.Context, itemID string, limit int) ([]StockChange, error)
}
