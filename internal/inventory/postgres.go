package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger backs the ledger with the items table. The reserve path is a
// single conditional UPDATE so the stock floor holds under arbitrary
// concurrent callers; the stock change row lands in the same transaction.
type PostgresLedger struct {
	DB *pgxpool.Pool
}

func (l *PostgresLedger) TryReserve(ctx context.Context, itemID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQty
	}
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var oldStock int
	var name string
	ct, err := tx.Exec(ctx, `
		UPDATE items
		SET stock = stock - $2, out_of_stock = (stock - $2 <= 0), updated_at = now()
		WHERE id = $1 AND stock >= $2`, itemID, qty)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		// either unknown item or insufficient stock
		err := tx.QueryRow(ctx, `SELECT stock, name FROM items WHERE id=$1`, itemID).Scan(&oldStock, &name)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		if err != nil {
			return false, err
		}
		return false, nil
	}

	var newStock int
	if err := tx.QueryRow(ctx, `SELECT stock, name FROM items WHERE id=$1`, itemID).Scan(&newStock, &name); err != nil {
		return false, err
	}
	if err := l.logChange(ctx, tx, itemID, name, newStock+qty, newStock, ActorUser, ReasonOrderReservation); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (l *PostgresLedger) Release(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	return l.mutate(ctx, itemID, ActorSystem, ReasonCancelRestore, func(old int) int {
		return old + qty
	})
}

func (l *PostgresLedger) SetStock(ctx context.Context, itemID string, newStock int) error {
	if newStock < 0 {
		newStock = 0
	}
	return l.mutate(ctx, itemID, ActorAdmin, ReasonManualUpdate, func(int) int {
		return newStock
	})
}

func (l *PostgresLedger) AdjustStock(ctx context.Context, itemID string, delta int) error {
	return l.mutate(ctx, itemID, ActorSystem, ReasonAutoAdjust, func(old int) int {
		n := old + delta
		if n < 0 {
			n = 0
		}
		return n
	})
}

// mutate locks the item row, applies fn to the stock level, recomputes the
// out-of-stock flag and writes the change record, all in one transaction.
func (l *PostgresLedger) mutate(ctx context.Context, itemID, actor, reason string, fn func(old int) int) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var oldStock int
	var name string
	err = tx.QueryRow(ctx, `SELECT stock, name FROM items WHERE id=$1 FOR UPDATE`, itemID).Scan(&oldStock, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return err
	}

	newStock := fn(oldStock)
	if _, err := tx.Exec(ctx, `
		UPDATE items SET stock=$2, out_of_stock=($2 <= 0), updated_at=now() WHERE id=$1`,
		itemID, newStock); err != nil {
		return err
	}
	if err := l.logChange(ctx, tx, itemID, name, oldStock, newStock, actor, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *PostgresLedger) logChange(ctx context.Context, tx pgx.Tx, itemID, name string, oldStock, newStock int, actor, reason string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_changes(id, item_id, item_name, old_stock, new_stock, delta, actor, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		uuid.NewString(), itemID, name, oldStock, newStock, newStock-oldStock, actor, reason)
	return err
}

func (l *PostgresLedger) Get(ctx context.Context, itemID string) (*Item, error) {
	var it Item
	err := l.DB.QueryRow(ctx, `
		SELECT id, name, stock, low_stock_threshold, out_of_stock, mrp, selling_price,
		       COALESCE(offer_label,''), created_at, updated_at
		FROM items WHERE id=$1`, itemID).Scan(
		&it.ID, &it.Name, &it.Stock, &it.LowStockThreshold, &it.OutOfStock,
		&it.MRP, &it.SellingPrice, &it.OfferLabel, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (l *PostgresLedger) List(ctx context.Context) ([]Item, error) {
	return l.queryItems(ctx, `
		SELECT id, name, stock, low_stock_threshold, out_of_stock, mrp, selling_price,
		       COALESCE(offer_label,''), created_at, updated_at
		FROM items ORDER BY name`)
}

func (l *PostgresLedger) LowStock(ctx context.Context) ([]Item, error) {
	return l.queryItems(ctx, `
		SELECT id, name, stock, low_stock_threshold, out_of_stock, mrp, selling_price,
		       COALESCE(offer_label,''), created_at, updated_at
		FROM items WHERE stock <= low_stock_threshold ORDER BY stock`)
}

func (l *PostgresLedger) queryItems(ctx context.Context, q string) ([]Item, error) {
	rows, err := l.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Stock, &it.LowStockThreshold, &it.OutOfStock,
			&it.MRP, &it.SellingPrice, &it.OfferLabel, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) Changes(ctx context.Context, itemID string, limit int) ([]StockChange, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.DB.Query(ctx, `
		SELECT id, item_id, item_name, old_stock, new_stock, delta, actor, reason, created_at
		FROM stock_changes WHERE item_id=$1 ORDER BY created_at DESC LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockChange
	for rows.Next() {
		var c StockChange
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ItemName, &c.OldStock, &c.NewStock,
			&c.Delta, &c.Actor, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
