package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFacts serves flash-sale, coupon and bundle facts. These tables are
// owned by the catalog side; the engine only reads them.
type PostgresFacts struct {
	DB *pgxpool.Pool
}

func (f *PostgresFacts) ActiveSale(ctx context.Context, itemID string, now time.Time) (*FlashSale, error) {
	var s FlashSale
	err := f.DB.QueryRow(ctx, `
		SELECT id, item_id, sale_price, starts_at, ends_at
		FROM flash_sales
		WHERE item_id=$1 AND active AND starts_at <= $2 AND ends_at > $2
		ORDER BY starts_at DESC LIMIT 1`, itemID, now).Scan(
		&s.ID, &s.ItemID, &s.SalePrice, &s.StartsAt, &s.EndsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *PostgresFacts) Find(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := f.DB.QueryRow(ctx, `
		SELECT code, discount_percent, min_order_amount, active, expires_at
		FROM coupons WHERE code=$1`, code).Scan(
		&c.Code, &c.DiscountPercent, &c.MinOrderAmount, &c.Active, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (f *PostgresFacts) Bundle(ctx context.Context, bundleID string) (*Bundle, error) {
	var b Bundle
	err := f.DB.QueryRow(ctx, `
		SELECT id, name, original_price, bundle_price
		FROM bundles WHERE id=$1 AND active`, bundleID).Scan(
		&b.ID, &b.Name, &b.OriginalPrice, &b.BundlePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, bundleID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
