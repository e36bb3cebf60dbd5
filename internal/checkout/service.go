package checkout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/cart"
	"github.com/foodnest/order-engine/internal/inventory"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/payment"
	"github.com/foodnest/order-engine/internal/pricing"
	"github.com/foodnest/order-engine/internal/settings"
)

// InsufficientStockError names the line that could not be reserved so the
// client can surface it.
type InsufficientStockError struct {
	ItemID   string
	ItemName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ItemName)
}

// CheckoutRequest carries the delivery details; the lines themselves come
// from the caller's stored cart.
type CheckoutRequest struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Service turns a cart into a placed order: reserve stock, snapshot prices,
// open a payment transaction.
type Service struct {
	Repo      orders.Repository
	Ledger    inventory.Ledger
	Pricing   *pricing.Resolver
	Settings  settings.Source
	Gateway   payment.Gateway
	Carts     cart.Store
	Broadcast orders.Broadcaster
	Log       *zap.Logger
}

type reservation struct {
	itemID string
	qty    int
}

// CreateOrder places an order for the caller's current cart.
//
// Stock is reserved line by line before anything is persisted. The first line
// that cannot be reserved aborts the checkout and releases everything reserved
// so far; releases are best-effort and logged on failure. Prices are resolved
// once and frozen onto the order.
func (s *Service) CreateOrder(ctx context.Context, callerID string, req CheckoutRequest) (*orders.Order, error) {
	c, err := s.Carts.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for _, l := range c.Lines {
		if l.Qty <= 0 {
			return nil, inventory.ErrInvalidQty
		}
	}

	now := time.Now()
	var reserved []reservation
	var lines []orders.LineItem
	var subtotal float64

	for _, l := range c.Lines {
		switch l.Kind {
		case cart.KindBundle:
			b, q, err := s.Pricing.QuoteBundle(ctx, l.BundleID, now)
			if err != nil {
				s.rollback(ctx, reserved)
				return nil, err
			}
			lines = append(lines, orders.LineItem{
				Kind:            orders.KindBundle,
				BundleID:        b.ID,
				Name:            b.Name,
				Qty:             l.Qty,
				BaseMRP:         q.MRP,
				SellingPrice:    q.EffectivePrice,
				DiscountPercent: q.DiscountPercent,
				OfferLabel:      q.OfferLabel,
			})
			subtotal += q.EffectivePrice * float64(l.Qty)

		default:
			item, err := s.Ledger.Get(ctx, l.ProductID)
			if err != nil {
				s.rollback(ctx, reserved)
				return nil, err
			}
			ok, err := s.Ledger.TryReserve(ctx, item.ID, l.Qty)
			if err != nil {
				s.rollback(ctx, reserved)
				return nil, fmt.Errorf("reserve %s: %w", item.ID, err)
			}
			if !ok {
				s.rollback(ctx, reserved)
				return nil, &InsufficientStockError{ItemID: item.ID, ItemName: item.Name}
			}
			reserved = append(reserved, reservation{itemID: item.ID, qty: l.Qty})

			q, err := s.Pricing.QuoteItem(ctx, item, now)
			if err != nil {
				s.rollback(ctx, reserved)
				return nil, err
			}
			lines = append(lines, orders.LineItem{
				Kind:            orders.KindProduct,
				ProductID:       item.ID,
				Name:            item.Name,
				Qty:             l.Qty,
				BaseMRP:         q.MRP,
				SellingPrice:    q.EffectivePrice,
				DiscountPercent: q.DiscountPercent,
				OfferLabel:      q.OfferLabel,
			})
			subtotal += q.EffectivePrice * float64(l.Qty)
		}
	}

	afterCoupon, err := s.Pricing.ApplyCoupon(ctx, c.CouponCode, subtotal, now)
	if err != nil {
		s.rollback(ctx, reserved)
		return nil, err
	}

	snap, err := s.Settings.Snapshot(ctx)
	if err != nil {
		s.rollback(ctx, reserved)
		return nil, fmt.Errorf("load settings: %w", err)
	}
	tax := round2(afterCoupon * snap.TaxPercent / 100.0)
	total := round2(afterCoupon + tax + snap.ShippingCharge)

	o := &orders.Order{
		ID:         uuid.NewString(),
		CustomerID: callerID,
		Address:    req.Address,
		Phone:      req.Phone,
		Email:      req.Email,
		Items:      lines,
		Subtotal:   round2(subtotal),
		Discount:   round2(subtotal - afterCoupon),
		Tax:        tax,
		Shipping:   snap.ShippingCharge,
		GrandTotal: total,
		CouponCode: c.CouponCode,
		CreatedAt:  now,
	}
	o.SetStatus(orders.StatusPlaced, now)
	o.AddHistory("Order placed", now, inventory.ActorUser, "")

	if err := s.Repo.Insert(ctx, o); err != nil {
		s.rollback(ctx, reserved)
		return nil, fmt.Errorf("persist order: %w", err)
	}

	ref, err := s.Gateway.CreateTransaction(ctx, minorUnits(total), snap.Currency)
	if err != nil {
		// order stays PLACED without a payment ref; the client retries or the
		// customer cancels, which returns the stock
		s.Log.Error("open payment transaction failed",
			zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}
	o.GatewayOrderID = ref
	if err := s.Repo.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("attach payment ref: %w", err)
	}
	return o, nil
}

// VerifyPayment records the gateway's outcome for an order found by its
// payment reference. A paid outcome clears the cart and announces the order.
func (s *Service) VerifyPayment(ctx context.Context, gatewayOrderID, paymentID, signature, status string) (*orders.Order, error) {
	o, err := s.Repo.GetByGatewayRef(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	o.GatewayPaymentID = paymentID
	o.GatewaySignature = signature
	o.PaymentStatus = status
	if err := s.Repo.Update(ctx, o); err != nil {
		return nil, err
	}

	if status == "paid" {
		if err := s.Carts.Clear(ctx, o.CustomerID); err != nil {
			s.Log.Warn("cart clear failed",
				zap.String("customer_id", o.CustomerID), zap.Error(err))
		}
		if s.Broadcast != nil {
			s.Broadcast.OrderStatusChanged(o)
		}
	}
	return o, nil
}

func (s *Service) rollback(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.Ledger.Release(ctx, r.itemID, r.qty); err != nil {
			s.Log.Error("compensating release failed",
				zap.String("item_id", r.itemID), zap.Int("qty", r.qty), zap.Error(err))
		}
	}
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
