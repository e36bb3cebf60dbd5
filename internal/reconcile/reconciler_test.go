package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/courier"
	"github.com/foodnest/order-engine/internal/orders"
)

type fakeFetcher struct {
	events map[string][]courier.TrackingEvent
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) FetchEvents(_ context.Context, trackingID string) ([]courier.TrackingEvent, error) {
	f.calls = append(f.calls, trackingID)
	if err := f.errs[trackingID]; err != nil {
		return nil, err
	}
	return f.events[trackingID], nil
}

func seedShippedOrder(t *testing.T, repo *orders.MemoryRepo, id, trackingID string) *orders.Order {
	t.Helper()
	o := &orders.Order{ID: id, CustomerID: "cust-1", CourierTrackingID: trackingID}
	o.SetStatus(orders.StatusShipped, time.Now())
	require.NoError(t, repo.Insert(context.Background(), o))
	return o
}

func newReconciler(repo *orders.MemoryRepo, f *fakeFetcher) *Reconciler {
	return &Reconciler{Repo: repo, Courier: f, Log: zap.NewNop()}
}

func TestApplyCourierEventIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := orders.NewMemoryRepo()
	r := newReconciler(repo, &fakeFetcher{})
	seedShippedOrder(t, repo, "ord-1", "TRK1")

	ev := courier.TrackingEvent{Status: "Out for delivery", Time: time.Now()}
	require.NoError(t, r.ApplyCourierEvent(ctx, "TRK1", ev))
	require.NoError(t, r.ApplyCourierEvent(ctx, "TRK1", ev))

	o, err := repo.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusOutForDelivery, o.Status)
	require.Len(t, o.DeliveryLog, 1)
	assert.Equal(t, "Out for delivery", o.DeliveryLog[0].Message)
}

func TestApplyCourierEventUnknownTrackingDropped(t *testing.T) {
	repo := orders.NewMemoryRepo()
	r := newReconciler(repo, &fakeFetcher{})

	err := r.ApplyCourierEvent(context.Background(), "TRK-ghost",
		courier.TrackingEvent{Status: "Delivered"})
	assert.NoError(t, err)
}

func TestApplyCourierEventUnmatchedTextOnlyLogs(t *testing.T) {
	ctx := context.Background()
	repo := orders.NewMemoryRepo()
	r := newReconciler(repo, &fakeFetcher{})
	seedShippedOrder(t, repo, "ord-1", "TRK1")

	require.NoError(t, r.ApplyCourierEvent(ctx, "TRK1",
		courier.TrackingEvent{Status: "Weather delay at sorting center"}))

	o, err := repo.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, o.Status)
	assert.True(t, o.HasMessage("Weather delay at sorting center"))
}

func TestApplyCourierEventNeverRegresses(t *testing.T) {
	ctx := context.Background()
	repo := orders.NewMemoryRepo()
	r := newReconciler(repo, &fakeFetcher{})
	o := seedShippedOrder(t, repo, "ord-1", "TRK1")
	o.SetStatus(orders.StatusDelivered, time.Now())
	require.NoError(t, repo.Update(ctx, o))

	require.NoError(t, r.ApplyCourierEvent(ctx, "TRK1",
		courier.TrackingEvent{Status: "Shipped from origin"}))

	got, err := repo.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, got.Status)
	assert.True(t, got.HasMessage("Shipped from origin"))
}

func TestSweepIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	repo := orders.NewMemoryRepo()
	seedShippedOrder(t, repo, "ord-1", "TRK1")
	seedShippedOrder(t, repo, "ord-2", "TRK2")

	f := &fakeFetcher{
		errs: map[string]error{"TRK1": errors.New("courier down")},
		events: map[string][]courier.TrackingEvent{
			"TRK2": {{Status: "Delivered", Time: time.Now()}},
		},
	}
	r := newReconciler(repo, f)
	r.Sweep(ctx)

	assert.ElementsMatch(t, []string{"TRK1", "TRK2"}, f.calls)

	o2, err := repo.Get(ctx, "ord-2")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, o2.Status)
}

func TestSweepSkipsTerminalOrders(t *testing.T) {
	ctx := context.Background()
	repo := orders.NewMemoryRepo()
	o := seedShippedOrder(t, repo, "ord-1", "TRK1")
	o.SetStatus(orders.StatusDelivered, time.Now())
	require.NoError(t, repo.Update(ctx, o))

	f := &fakeFetcher{}
	newReconciler(repo, f).Sweep(ctx)
	assert.Empty(t, f.calls)
}
