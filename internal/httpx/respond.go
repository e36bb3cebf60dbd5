package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/foodnest/order-engine/internal/cart"
	"github.com/foodnest/order-engine/internal/checkout"
	"github.com/foodnest/order-engine/internal/identity"
	"github.com/foodnest/order-engine/internal/inventory"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/pricing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become a
// bare 500 so internals do not leak.
func writeError(w http.ResponseWriter, err error) {
	var insufficient *checkout.InsufficientStockError
	var minimum *pricing.MinimumNotMetError

	switch {
	case errors.Is(err, identity.ErrNoCaller):
		writeJSON(w, http.StatusUnauthorized, errBody(err))
	case errors.Is(err, orders.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errBody(err))
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, pricing.ErrBundleNotFound):
		writeJSON(w, http.StatusNotFound, errBody(err))
	case errors.As(err, &insufficient),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrEditLocked),
		errors.Is(err, orders.ErrCancelBlocked):
		writeJSON(w, http.StatusConflict, errBody(err))
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, inventory.ErrInvalidQty),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, pricing.ErrInvalidCoupon),
		errors.Is(err, pricing.ErrCouponExpired),
		errors.As(err, &minimum):
		writeJSON(w, http.StatusBadRequest, errBody(err))
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
