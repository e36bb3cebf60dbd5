package httpx

import (
	"errors"
	"net/http"

	"github.com/foodnest/order-engine/internal/cart"
	"github.com/foodnest/order-engine/internal/identity"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := s.Carts.Get(r.Context(), callerID)
	if errors.Is(err, cart.ErrEmptyCart) {
		writeJSON(w, http.StatusOK, cart.Cart{CustomerID: callerID, Lines: []cart.Line{}})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handlePutCart(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var c cart.Cart
	if err := decode(r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	c.CustomerID = callerID
	for _, l := range c.Lines {
		if l.Qty <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
			return
		}
	}
	if err := s.Carts.Set(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Carts.Clear(r.Context(), callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
