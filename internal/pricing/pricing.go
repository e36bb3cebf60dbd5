package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/foodnest/order-engine/internal/inventory"
)

var (
	ErrInvalidCoupon  = errors.New("invalid coupon")
	ErrCouponExpired  = errors.New("coupon expired")
	ErrBundleNotFound = errors.New("bundle not found")
)

// MinimumNotMetError carries the coupon's minimum so callers can show it.
type MinimumNotMetError struct {
	Minimum float64
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum order %.2f required", e.Minimum)
}

const FlashSaleLabel = "FLASH SALE"

type FlashSale struct {
	ID        string
	ItemID    string
	SalePrice float64
	StartsAt  time.Time
	EndsAt    time.Time
}

type Coupon struct {
	Code            string
	DiscountPercent float64
	MinOrderAmount  float64
	Active          bool
	ExpiresAt       *time.Time
}

type Bundle struct {
	ID            string
	Name          string
	OriginalPrice float64
	BundlePrice   float64
}

// FlashSaleSource yields the active sale for an item at a point in time, or
// nil when there is none.
type FlashSaleSource interface {
	ActiveSale(ctx context.Context, itemID string, now time.Time) (*FlashSale, error)
}

type CouponSource interface {
	// Find returns nil when no active coupon with that code exists.
	Find(ctx context.Context, code string) (*Coupon, error)
}

type BundleSource interface {
	Bundle(ctx context.Context, bundleID string) (*Bundle, error)
}

// Quote is a point-in-time price snapshot for one unit.
type Quote struct {
	MRP             float64
	EffectivePrice  float64
	DiscountPercent int
	OfferLabel      string
}

type Resolver struct {
	Sales   FlashSaleSource
	Coupons CouponSource
	Bundles BundleSource
}

// QuoteItem resolves the effective unit price of a catalog item at now. An
// active flash sale wins over the item's own selling price.
func (r *Resolver) QuoteItem(ctx context.Context, item *inventory.Item, now time.Time) (Quote, error) {
	price := item.SellingPrice
	label := item.OfferLabel

	sale, err := r.Sales.ActiveSale(ctx, item.ID, now)
	if err != nil {
		return Quote{}, fmt.Errorf("flash sale lookup: %w", err)
	}
	if sale != nil {
		price = sale.SalePrice
		label = FlashSaleLabel
	}
	return Quote{
		MRP:             item.MRP,
		EffectivePrice:  price,
		DiscountPercent: discountPercent(item.MRP, price),
		OfferLabel:      label,
	}, nil
}

// QuoteBundle resolves a bundle's price snapshot. Bundles do not participate
// in flash sales; the bundle price already is the offer.
func (r *Resolver) QuoteBundle(ctx context.Context, bundleID string, _ time.Time) (*Bundle, Quote, error) {
	b, err := r.Bundles.Bundle(ctx, bundleID)
	if err != nil {
		return nil, Quote{}, err
	}
	d := discountPercent(b.OriginalPrice, b.BundlePrice)
	label := ""
	if d > 0 {
		label = fmt.Sprintf("%d%% OFF", d)
	}
	return b, Quote{
		MRP:             b.OriginalPrice,
		EffectivePrice:  b.BundlePrice,
		DiscountPercent: d,
		OfferLabel:      label,
	}, nil
}

// ApplyCoupon discounts the order subtotal. An empty code is a no-op.
func (r *Resolver) ApplyCoupon(ctx context.Context, code string, subtotal float64, now time.Time) (float64, error) {
	if code == "" {
		return subtotal, nil
	}
	c, err := r.Coupons.Find(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("coupon lookup: %w", err)
	}
	if c == nil || !c.Active {
		return 0, ErrInvalidCoupon
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return 0, ErrCouponExpired
	}
	if subtotal < c.MinOrderAmount {
		return 0, &MinimumNotMetError{Minimum: c.MinOrderAmount}
	}
	discounted := subtotal - subtotal*c.DiscountPercent/100.0
	return math.Max(discounted, 0), nil
}

// discountPercent derives the shown discount from mrp vs effective price,
// clamped to 0 when non-positive.
func discountPercent(mrp, effective float64) int {
	if mrp <= 0 || effective >= mrp {
		return 0
	}
	return int(math.Round((mrp - effective) / mrp * 100))
}
