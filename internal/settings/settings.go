package settings

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Snapshot is the mutable business configuration, fetched once per operation
// rather than held as ambient global state.
type Snapshot struct {
	TaxPercent     float64   `json:"tax_percent"`
	ShippingCharge float64   `json:"shipping_charge"`
	Currency       string    `json:"currency"`
	GatewayKey     string    `json:"-"`
	GatewaySecret  string    `json:"-"`
	CourierAPIKey  string    `json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Source yields the current settings snapshot.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

type PostgresSource struct {
	DB *pgxpool.Pool
}

func (s *PostgresSource) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.DB.QueryRow(ctx, `
		SELECT tax_percent, shipping_charge, currency, gateway_key, gateway_secret,
		       courier_api_key, updated_at
		FROM settings WHERE id='default'`).Scan(
		&snap.TaxPercent, &snap.ShippingCharge, &snap.Currency,
		&snap.GatewayKey, &snap.GatewaySecret, &snap.CourierAPIKey, &snap.UpdatedAt)
	return snap, err
}

// Static is a fixed snapshot, handy in tests.
type Static Snapshot

func (s Static) Snapshot(context.Context) (Snapshot, error) {
	return Snapshot(s), nil
}
