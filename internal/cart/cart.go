package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/foodnest/order-engine/internal/redisx"
)

var ErrEmptyCart = errors.New("cart is empty")

// Line kinds, mirroring the order line kinds.
const (
	KindProduct = "PRODUCT"
	KindBundle  = "BUNDLE"
)

// Line is one entry in a customer's cart. Kind distinguishes plain products
// from bundles; CouponCode rides on the cart so checkout sees one payload.
type Line struct {
	Kind      string `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
	BundleID  string `json:"bundle_id,omitempty"`
	Qty       int    `json:"qty"`
}

type Cart struct {
	CustomerID string `json:"customer_id"`
	Lines      []Line `json:"lines"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// Store keeps the active cart per customer.
type Store interface {
	Get(ctx context.Context, customerID string) (*Cart, error)
	Set(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, customerID string) error
}

// RedisStore holds carts as JSON blobs under cart:{customer_id}. Carts have no
// TTL; an abandoned cart simply waits for the next session.
type RedisStore struct {
	RDB *redis.Client
}

func (s *RedisStore) Get(ctx context.Context, customerID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, customerID)
	raw, err := s.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	return &c, nil
}

func (s *RedisStore) Set(ctx context.Context, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyCart, c.CustomerID)
	return s.RDB.Set(ctx, key, raw, 0).Err()
}

func (s *RedisStore) Clear(ctx context.Context, customerID string) error {
	key := fmt.Sprintf(redisx.KeyCart, customerID)
	return s.RDB.Del(ctx, key).Err()
}
