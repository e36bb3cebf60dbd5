package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/inventory"
)

func newTestService(t *testing.T) (*Service, *MemoryRepo, *inventory.MemoryLedger) {
	t.Helper()
	repo := NewMemoryRepo()
	ledger := inventory.NewMemoryLedger()
	svc := &Service{
		Repo:      repo,
		Ledger:    ledger,
		Broadcast: NopBroadcaster{},
		Log:       zap.NewNop(),
	}
	return svc, repo, ledger
}

func placedOrder(t *testing.T, repo *MemoryRepo, ledger *inventory.MemoryLedger) *Order {
	t.Helper()
	ctx := context.Background()

	ledger.Put(inventory.Item{ID: "item-c", Name: "Paneer Tikka", Stock: 5})
	ok, err := ledger.TryReserve(ctx, "item-c", 1)
	require.NoError(t, err)
	require.True(t, ok)

	o := &Order{
		ID:         "ord-1",
		CustomerID: "cust-1",
		Items: []LineItem{
			{Kind: KindProduct, ProductID: "item-c", Name: "Paneer Tikka", Qty: 1, SellingPrice: 90},
		},
	}
	o.SetStatus(StatusPlaced, mustTime(t, "2026-03-01T09:00:00Z"))
	require.NoError(t, repo.Insert(ctx, o))
	return o
}

func TestDirectCancelRestoresStockOnce(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)
	o := placedOrder(t, repo, ledger)

	item, err := ledger.Get(ctx, "item-c")
	require.NoError(t, err)
	require.Equal(t, 4, item.Stock)

	require.NoError(t, svc.DirectCancel(ctx, o.ID, "cust-1"))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.True(t, got.StockRestored)

	item, err = ledger.Get(ctx, "item-c")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Stock)

	// second cancel is a no-op, stock must not grow past the original level
	require.NoError(t, svc.DirectCancel(ctx, o.ID, "cust-1"))
	item, err = ledger.Get(ctx, "item-c")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Stock)
}

func TestDirectCancelRejectsDeliveredAndStrangers(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)
	o := placedOrder(t, repo, ledger)

	assert.ErrorIs(t, svc.DirectCancel(ctx, o.ID, "someone-else"), ErrUnauthorized)

	_, err := svc.UpdateStatus(ctx, o.ID, "DELIVERED", "admin", "", "")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DirectCancel(ctx, o.ID, "cust-1"), ErrCancelBlocked)
}

func TestApproveCancelRequiresPendingRequest(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)
	o := placedOrder(t, repo, ledger)

	err := svc.ApproveCancel(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.RequestCancel(ctx, o.ID, "cust-1"))
	require.NoError(t, svc.ApproveCancel(ctx, o.ID))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.True(t, got.StockRestored)
}

func TestUpdateStatusRejectsBackwardMove(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)
	o := placedOrder(t, repo, ledger)

	_, err := svc.UpdateStatus(ctx, o.ID, "SHIPPED", "admin", "", "")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, o.ID, "CONFIRMED", "admin", "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestContactEditsLockAfterShipping(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)
	o := placedOrder(t, repo, ledger)

	require.NoError(t, svc.UpdateAddress(ctx, o.ID, "cust-1", "12 New Lane"))
	require.NoError(t, svc.UpdatePhone(ctx, o.ID, "cust-1", "9999900000"))

	_, err := svc.UpdateStatus(ctx, o.ID, "SHIPPED", "admin", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateAddress(ctx, o.ID, "cust-1", "nope"), ErrEditLocked)
	assert.ErrorIs(t, svc.UpdatePhone(ctx, o.ID, "cust-1", "0"), ErrEditLocked)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 New Lane", got.Address)
	assert.Equal(t, "9999900000", got.Phone)
}

func TestUpdateCourierDetailsMarksShipped(t *testing.T) {
	ctx := context.Background()
	svc, repo, ledger := newTestService(t)
	o := placedOrder(t, repo, ledger)

	require.NoError(t, svc.UpdateCourierDetails(ctx, o.ID, "BlueDart", "TRK123", "https://track/TRK123"))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
	assert.Equal(t, "TRK123", got.CourierTrackingID)
	assert.True(t, got.HasMessage("Order shipped via BlueDart"))
}
