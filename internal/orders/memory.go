package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local development.
type MemoryRepo struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: make(map[string]*Order)}
}

func (r *MemoryRepo) Insert(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := clone(o)
	r.orders[o.ID] = cp
	return nil
}

func (r *MemoryRepo) Update(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, o.ID)
	}
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(o), nil
}

func (r *MemoryRepo) GetByGatewayRef(_ context.Context, ref string) (*Order, error) {
	return r.find(func(o *Order) bool { return o.GatewayOrderID == ref && ref != "" })
}

func (r *MemoryRepo) GetByTrackingID(_ context.Context, trackingID string) (*Order, error) {
	return r.find(func(o *Order) bool { return o.CourierTrackingID == trackingID && trackingID != "" })
}

func (r *MemoryRepo) find(match func(*Order) bool) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if match(o) {
			return clone(o), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepo) ListByCustomer(_ context.Context, customerID string) ([]Order, error) {
	return r.list(func(o *Order) bool { return o.CustomerID == customerID }), nil
}

func (r *MemoryRepo) ListByPhone(_ context.Context, phone string) ([]Order, error) {
	return r.list(func(o *Order) bool { return o.Phone == phone }), nil
}

func (r *MemoryRepo) ListAll(_ context.Context) ([]Order, error) {
	return r.list(func(*Order) bool { return true }), nil
}

func (r *MemoryRepo) ListWithTracking(_ context.Context) ([]Order, error) {
	return r.list(func(o *Order) bool { return o.CourierTrackingID != "" && !o.Status.Terminal() }), nil
}

func (r *MemoryRepo) list(match func(*Order) bool) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Order
	for _, o := range r.orders {
		if match(o) {
			out = append(out, *clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.orders, id)
	return nil
}

func clone(o *Order) *Order {
	cp := *o
	cp.Items = append([]LineItem(nil), o.Items...)
	cp.DeliveryLog = append([]HistoryEntry(nil), o.DeliveryLog...)
	cp.PODImageURLs = append([]string(nil), o.PODImageURLs...)
	if o.Timestamps != nil {
		cp.Timestamps = make(map[Status]time.Time, len(o.Timestamps))
		for k, v := range o.Timestamps {
			cp.Timestamps[k] = v
		}
	}
	return &cp
}
