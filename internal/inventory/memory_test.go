package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryReserve(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put(Item{ID: "a", Name: "Dal Makhani", Stock: 5})

	ok, err := l.TryReserve(ctx, "a", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	it, err := l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, it.Stock)

	// more than remaining: refused, no mutation
	ok, err = l.TryReserve(ctx, "a", 4)
	require.NoError(t, err)
	assert.False(t, ok)

	it, err = l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, it.Stock)

	_, err = l.TryReserve(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrInvalidQty)

	_, err = l.TryReserve(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestTryReserveLastUnitRace(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put(Item{ID: "a", Name: "Dal Makhani", Stock: 1})

	const callers = 32
	var wins int32
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			ok, err := l.TryReserve(ctx, "a", 1)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	it, err := l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, it.Stock)
	assert.True(t, it.OutOfStock)
}

func TestReleaseRestoresStock(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put(Item{ID: "a", Name: "Dal Makhani", Stock: 5})

	ok, err := l.TryReserve(ctx, "a", 5)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, "a", 5))
	it, err := l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 5, it.Stock)
	assert.False(t, it.OutOfStock)
}

func TestAdjustStockClampsAtZero(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put(Item{ID: "a", Name: "Dal Makhani", Stock: 3})

	require.NoError(t, l.AdjustStock(ctx, "a", -10))
	it, err := l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, it.Stock)
	assert.True(t, it.OutOfStock)
}

func TestLowStock(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put(Item{ID: "a", Name: "Dal Makhani", Stock: 2, LowStockThreshold: 5})
	l.Put(Item{ID: "b", Name: "Butter Naan", Stock: 50, LowStockThreshold: 5})

	low, err := l.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "a", low[0].ID)
}

func TestChangesLog(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put(Item{ID: "a", Name: "Dal Makhani", Stock: 5})

	_, err := l.TryReserve(ctx, "a", 2)
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, "a", 2))
	require.NoError(t, l.SetStock(ctx, "a", 10))

	changes, err := l.Changes(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	// newest first
	assert.Equal(t, 10, changes[0].NewStock)
	assert.Equal(t, ReasonManualUpdate, changes[0].Reason)
	assert.Equal(t, ReasonCancelRestore, changes[1].Reason)
	assert.Equal(t, ReasonOrderReservation, changes[2].Reason)
	assert.Equal(t, -2, changes[2].Delta)
}
