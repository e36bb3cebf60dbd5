package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the order aggregate. Line items are written once at
// insert and never updated; every other mutation rewrites the single order
// row.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByGatewayRef(ctx context.Context, ref string) (*Order, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListByPhone(ctx context.Context, phone string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListWithTracking(ctx context.Context) ([]Order, error)
	Delete(ctx context.Context, id string) error
}

type PostgresRepo struct {
	DB *pgxpool.Pool
}

const orderColumns = `
	id, COALESCE(customer_id,''), address, phone, email,
	subtotal, discount, tax, shipping, grand_total, COALESCE(coupon_code,''),
	status, COALESCE(payment_status,''),
	COALESCE(gateway_order_id,''), COALESCE(gateway_signature,''), COALESCE(gateway_payment_id,''),
	COALESCE(courier_name,''), COALESCE(courier_tracking_id,''), COALESCE(courier_track_url,''),
	stock_restored, status_timestamps, delivery_log, pod_image_urls, created_at`

func (r *PostgresRepo) Insert(ctx context.Context, o *Order) error {
	ts, dl, pod, err := marshalJSON(o)
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(
			id, customer_id, address, phone, email,
			subtotal, discount, tax, shipping, grand_total, coupon_code,
			status, payment_status,
			gateway_order_id, gateway_signature, gateway_payment_id,
			courier_name, courier_tracking_id, courier_track_url,
			stock_restored, status_timestamps, delivery_log, pod_image_urls, created_at)
		VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,''),
		        $12,NULLIF($13,''),NULLIF($14,''),NULLIF($15,''),NULLIF($16,''),
		        NULLIF($17,''),NULLIF($18,''),NULLIF($19,''),$20,$21,$22,$23,$24)`,
		o.ID, o.CustomerID, o.Address, o.Phone, o.Email,
		o.Subtotal, o.Discount, o.Tax, o.Shipping, o.GrandTotal, o.CouponCode,
		string(o.Status), o.PaymentStatus,
		o.GatewayOrderID, o.GatewaySignature, o.GatewayPaymentID,
		o.CourierName, o.CourierTrackingID, o.CourierTrackURL,
		o.StockRestored, ts, dl, pod, o.CreatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, kind, product_id, bundle_id, name, qty,
			                        base_mrp, selling_price, discount_percent, offer_label)
			VALUES ($1,$2,NULLIF($3,''),NULLIF($4,''),$5,$6,$7,$8,$9,NULLIF($10,''))`,
			o.ID, it.Kind, it.ProductID, it.BundleID, it.Name, it.Qty,
			it.BaseMRP, it.SellingPrice, it.DiscountPercent, it.OfferLabel); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepo) Update(ctx context.Context, o *Order) error {
	ts, dl, pod, err := marshalJSON(o)
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET
			customer_id=NULLIF($2,''), address=$3, phone=$4, email=$5,
			status=$6, payment_status=NULLIF($7,''),
			gateway_order_id=NULLIF($8,''), gateway_signature=NULLIF($9,''), gateway_payment_id=NULLIF($10,''),
			courier_name=NULLIF($11,''), courier_tracking_id=NULLIF($12,''), courier_track_url=NULLIF($13,''),
			stock_restored=$14, status_timestamps=$15, delivery_log=$16, pod_image_urls=$17
		WHERE id=$1`,
		o.ID, o.CustomerID, o.Address, o.Phone, o.Email,
		string(o.Status), o.PaymentStatus,
		o.GatewayOrderID, o.GatewaySignature, o.GatewayPaymentID,
		o.CourierName, o.CourierTrackingID, o.CourierTrackURL,
		o.StockRestored, ts, dl, pod)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, o.ID)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Order, error) {
	return r.getWhere(ctx, `id=$1`, id)
}

func (r *PostgresRepo) GetByGatewayRef(ctx context.Context, ref string) (*Order, error) {
	return r.getWhere(ctx, `gateway_order_id=$1`, ref)
}

func (r *PostgresRepo) GetByTrackingID(ctx context.Context, trackingID string) (*Order, error) {
	return r.getWhere(ctx, `courier_tracking_id=$1`, trackingID)
}

func (r *PostgresRepo) getWhere(ctx context.Context, where string, arg any) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w (%v)", ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return r.listWhere(ctx, `WHERE customer_id=$1`, customerID)
}

func (r *PostgresRepo) ListByPhone(ctx context.Context, phone string) ([]Order, error) {
	return r.listWhere(ctx, `WHERE phone=$1`, phone)
}

func (r *PostgresRepo) ListAll(ctx context.Context) ([]Order, error) {
	return r.listWhere(ctx, ``)
}

func (r *PostgresRepo) ListWithTracking(ctx context.Context) ([]Order, error) {
	return r.listWhere(ctx, `WHERE COALESCE(courier_tracking_id,'') <> '' AND status NOT IN ('DELIVERED','CANCELLED')`)
}

func (r *PostgresRepo) listWhere(ctx context.Context, where string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *PostgresRepo) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.DB.Query(ctx, `
		SELECT kind, COALESCE(product_id,''), COALESCE(bundle_id,''), name, qty,
		       base_mrp, selling_price, discount_percent, COALESCE(offer_label,'')
		FROM order_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.Kind, &it.ProductID, &it.BundleID, &it.Name, &it.Qty,
			&it.BaseMRP, &it.SellingPrice, &it.DiscountPercent, &it.OfferLabel); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var ts, dl, pod []byte
	if err := row.Scan(
		&o.ID, &o.CustomerID, &o.Address, &o.Phone, &o.Email,
		&o.Subtotal, &o.Discount, &o.Tax, &o.Shipping, &o.GrandTotal, &o.CouponCode,
		&o.Status, &o.PaymentStatus,
		&o.GatewayOrderID, &o.GatewaySignature, &o.GatewayPaymentID,
		&o.CourierName, &o.CourierTrackingID, &o.CourierTrackURL,
		&o.StockRestored, &ts, &dl, &pod, &o.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ts, &o.Timestamps); err != nil {
		return nil, fmt.Errorf("decode status timestamps: %w", err)
	}
	if err := json.Unmarshal(dl, &o.DeliveryLog); err != nil {
		return nil, fmt.Errorf("decode delivery log: %w", err)
	}
	if err := json.Unmarshal(pod, &o.PODImageURLs); err != nil {
		return nil, fmt.Errorf("decode pod urls: %w", err)
	}
	return &o, nil
}

func marshalJSON(o *Order) (ts, dl, pod []byte, err error) {
	if o.Timestamps == nil {
		o.Timestamps = map[Status]time.Time{}
	}
	if ts, err = json.Marshal(o.Timestamps); err != nil {
		return
	}
	if o.DeliveryLog == nil {
		dl = []byte(`[]`)
	} else if dl, err = json.Marshal(o.DeliveryLog); err != nil {
		return
	}
	if o.PODImageURLs == nil {
		pod = []byte(`[]`)
	} else if pod, err = json.Marshal(o.PODImageURLs); err != nil {
		return
	}
	return
}
