package httpx

import (
	"net/http"

	"github.com/foodnest/order-engine/internal/checkout"
	"github.com/foodnest/order-engine/internal/identity"
)

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req checkout.CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	o, err := s.Checkout.CreateOrder(r.Context(), callerID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GatewayOrderID string `json:"gateway_order_id"`
		PaymentID      string `json:"payment_id"`
		Signature      string `json:"signature"`
		Status         string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	o, err := s.Checkout.VerifyPayment(r.Context(), req.GatewayOrderID, req.PaymentID, req.Signature, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
