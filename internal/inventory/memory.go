package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger is an in-memory Ledger used in tests and local development.
// A single mutex gives the same conditional-decrement guarantee the SQL
// implementation gets from its one-statement update.
type MemoryLedger struct {
	mu      sync.RWMutex
	items   map[string]*Item
	changes []StockChange
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{items: make(map[string]*Item)}
}

// Put inserts or replaces an item (seeding helper).
func (l *MemoryLedger) Put(it Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it.OutOfStock = it.Stock <= 0
	cp := it
	l.items[it.ID] = &cp
}

func (l *MemoryLedger) TryReserve(_ context.Context, itemID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQty
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[itemID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if it.Stock < qty {
		return false, nil
	}
	l.apply(it, it.Stock-qty, ActorUser, ReasonOrderReservation)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	l.apply(it, it.Stock+qty, ActorSystem, ReasonCancelRestore)
	return nil
}

func (l *MemoryLedger) SetStock(_ context.Context, itemID string, newStock int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if newStock < 0 {
		newStock = 0
	}
	l.apply(it, newStock, ActorAdmin, ReasonManualUpdate)
	return nil
}

func (l *MemoryLedger) AdjustStock(_ context.Context, itemID string, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	n := it.Stock + delta
	if n < 0 {
		n = 0
	}
	l.apply(it, n, ActorSystem, ReasonAutoAdjust)
	return nil
}

// apply mutates stock, recomputes the out-of-stock flag and appends the change
// record under the held lock.
func (l *MemoryLedger) apply(it *Item, newStock int, actor, reason string) {
	old := it.Stock
	it.Stock = newStock
	it.OutOfStock = newStock <= 0
	it.UpdatedAt = time.Now()
	l.changes = append(l.changes, StockChange{
		ID:        uuid.NewString(),
		ItemID:    it.ID,
		ItemName:  it.Name,
		OldStock:  old,
		NewStock:  newStock,
		Delta:     newStock - old,
		Actor:     actor,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
}

func (l *MemoryLedger) Get(_ context.Context, itemID string) (*Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	it, ok := l.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	cp := *it
	return &cp, nil
}

func (l *MemoryLedger) List(_ context.Context) ([]Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *MemoryLedger) LowStock(_ context.Context) ([]Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Item
	for _, it := range l.items {
		if it.Stock <= it.LowStockThreshold {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (l *MemoryLedger) Changes(_ context.Context, itemID string, limit int) ([]StockChange, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []StockChange
	for i := len(l.changes) - 1; i >= 0; i-- {
		if l.changes[i].ItemID == itemID {
			out = append(out, l.changes[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
