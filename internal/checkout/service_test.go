package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/cart"
	"github.com/foodnest/order-engine/internal/inventory"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/pricing"
	"github.com/foodnest/order-engine/internal/settings"
)

type fakeCarts struct {
	cart    *cart.Cart
	cleared []string
}

func (f *fakeCarts) Get(_ context.Context, customerID string) (*cart.Cart, error) {
	if f.cart == nil || f.cart.CustomerID != customerID || len(f.cart.Lines) == 0 {
		return nil, cart.ErrEmptyCart
	}
	return f.cart, nil
}

func (f *fakeCarts) Set(_ context.Context, c *cart.Cart) error { f.cart = c; return nil }

func (f *fakeCarts) Clear(_ context.Context, customerID string) error {
	f.cleared = append(f.cleared, customerID)
	f.cart = nil
	return nil
}

type fakeGateway struct {
	ref    string
	err    error
	amount int64
}

func (f *fakeGateway) CreateTransaction(_ context.Context, amountMinor int64, _ string) (string, error) {
	f.amount = amountMinor
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

type noSales struct{}

func (noSales) ActiveSale(context.Context, string, time.Time) (*pricing.FlashSale, error) {
	return nil, nil
}

type fixedCoupons map[string]*pricing.Coupon

func (f fixedCoupons) Find(_ context.Context, code string) (*pricing.Coupon, error) {
	return f[code], nil
}

type noBundles struct{}

func (noBundles) Bundle(context.Context, string) (*pricing.Bundle, error) {
	return nil, pricing.ErrBundleNotFound
}

type countingBroadcast struct{ calls int }

func (b *countingBroadcast) OrderStatusChanged(*orders.Order) { b.calls++ }

type fixture struct {
	svc       *Service
	repo      *orders.MemoryRepo
	ledger    *inventory.MemoryLedger
	carts     *fakeCarts
	gateway   *fakeGateway
	broadcast *countingBroadcast
}

func newFixture() *fixture {
	f := &fixture{
		repo:      orders.NewMemoryRepo(),
		ledger:    inventory.NewMemoryLedger(),
		carts:     &fakeCarts{},
		gateway:   &fakeGateway{ref: "gw-123"},
		broadcast: &countingBroadcast{},
	}
	f.svc = &Service{
		Repo:   f.repo,
		Ledger: f.ledger,
		Pricing: &pricing.Resolver{
			Sales: noSales{},
			Coupons: fixedCoupons{
				"SAVE10": {Code: "SAVE10", DiscountPercent: 10, MinOrderAmount: 50, Active: true},
			},
			Bundles: noBundles{},
		},
		Settings:  settings.Static{TaxPercent: 5, ShippingCharge: 10, Currency: "INR"},
		Gateway:   f.gateway,
		Carts:     f.carts,
		Broadcast: f.broadcast,
		Log:       zap.NewNop(),
	}
	return f
}

func TestCreateOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ledger.Put(inventory.Item{ID: "item-a", Name: "Chicken Biryani", Stock: 5, MRP: 100, SellingPrice: 100})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-a", Qty: 2}},
		CouponCode: "SAVE10",
	}

	o, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{Address: "7 Lake Rd", Phone: "98765", Email: "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, 200.0, o.Subtotal)
	assert.Equal(t, 20.0, o.Discount)
	assert.Equal(t, 9.0, o.Tax)
	assert.Equal(t, 10.0, o.Shipping)
	assert.Equal(t, 199.0, o.GrandTotal)
	assert.Equal(t, orders.StatusPlaced, o.Status)
	assert.Equal(t, "gw-123", o.GatewayOrderID)
	assert.Equal(t, int64(19900), f.gateway.amount)
	assert.Contains(t, o.Timestamps, orders.StatusPlaced)

	it, err := f.ledger.Get(ctx, "item-a")
	require.NoError(t, err)
	assert.Equal(t, 3, it.Stock)

	// price snapshot frozen on the line
	require.Len(t, o.Items, 1)
	assert.Equal(t, 100.0, o.Items[0].SellingPrice)
	assert.Equal(t, 2, o.Items[0].Qty)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ledger.Put(inventory.Item{ID: "item-b", Name: "Mutton Korma", Stock: 1, MRP: 120, SellingPrice: 120})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-b", Qty: 2}},
	}

	_, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "item-b", insufficient.ItemID)

	it, err := f.ledger.Get(ctx, "item-b")
	require.NoError(t, err)
	assert.Equal(t, 1, it.Stock)

	all, err := f.repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateOrderReleasesEarlierReservations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ledger.Put(inventory.Item{ID: "item-a", Name: "Chicken Biryani", Stock: 5, MRP: 100, SellingPrice: 100})
	f.ledger.Put(inventory.Item{ID: "item-b", Name: "Mutton Korma", Stock: 1, MRP: 120, SellingPrice: 120})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines: []cart.Line{
			{Kind: cart.KindProduct, ProductID: "item-a", Qty: 2},
			{Kind: cart.KindProduct, ProductID: "item-b", Qty: 2},
		},
	}

	_, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	itA, err := f.ledger.Get(ctx, "item-a")
	require.NoError(t, err)
	assert.Equal(t, 5, itA.Stock)
	itB, err := f.ledger.Get(ctx, "item-b")
	require.NoError(t, err)
	assert.Equal(t, 1, itB.Stock)
}

func TestCreateOrderInvalidQuantity(t *testing.T) {
	f := newFixture()
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-a", Qty: 0}},
	}
	_, err := f.svc.CreateOrder(context.Background(), "cust-1", CheckoutRequest{})
	assert.ErrorIs(t, err, inventory.ErrInvalidQty)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateOrder(context.Background(), "cust-1", CheckoutRequest{})
	assert.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestCreateOrderCouponFailureReleasesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ledger.Put(inventory.Item{ID: "item-a", Name: "Chicken Biryani", Stock: 5, MRP: 100, SellingPrice: 100})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-a", Qty: 1}},
		CouponCode: "NOPE",
	}

	_, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{})
	assert.ErrorIs(t, err, pricing.ErrInvalidCoupon)

	it, err := f.ledger.Get(ctx, "item-a")
	require.NoError(t, err)
	assert.Equal(t, 5, it.Stock)
}

func TestCreateOrderGatewayFailureKeepsPlacedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.gateway.err = errors.New("gateway down")
	f.ledger.Put(inventory.Item{ID: "item-a", Name: "Chicken Biryani", Stock: 5, MRP: 100, SellingPrice: 100})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-a", Qty: 1}},
	}

	_, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{})
	require.Error(t, err)

	all, err := f.repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, orders.StatusPlaced, all[0].Status)
	assert.Empty(t, all[0].GatewayOrderID)

	// stock stays reserved until the customer or an admin cancels
	it, err := f.ledger.Get(ctx, "item-a")
	require.NoError(t, err)
	assert.Equal(t, 4, it.Stock)
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ledger.Put(inventory.Item{ID: "item-a", Name: "Chicken Biryani", Stock: 5, MRP: 100, SellingPrice: 100})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-a", Qty: 2}},
	}
	o, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{})
	require.NoError(t, err)

	got, err := f.svc.VerifyPayment(ctx, o.GatewayOrderID, "pay-9", "sig-9", "paid")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.PaymentStatus)
	assert.Equal(t, "pay-9", got.GatewayPaymentID)
	assert.Equal(t, "sig-9", got.GatewaySignature)
	assert.Equal(t, []string{"cust-1"}, f.carts.cleared)
	assert.Equal(t, 1, f.broadcast.calls)

	_, err = f.svc.VerifyPayment(ctx, "gw-unknown", "p", "s", "paid")
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestVerifyPaymentFailedOutcomeKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.ledger.Put(inventory.Item{ID: "item-a", Name: "Chicken Biryani", Stock: 5, MRP: 100, SellingPrice: 100})
	f.carts.cart = &cart.Cart{
		CustomerID: "cust-1",
		Lines:      []cart.Line{{Kind: cart.KindProduct, ProductID: "item-a", Qty: 1}},
	}
	o, err := f.svc.CreateOrder(ctx, "cust-1", CheckoutRequest{})
	require.NoError(t, err)

	got, err := f.svc.VerifyPayment(ctx, o.GatewayOrderID, "pay-9", "sig-9", "failed")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.PaymentStatus)
	assert.Empty(t, f.carts.cleared)
	assert.Equal(t, 0, f.broadcast.calls)
}
