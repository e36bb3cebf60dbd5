package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/identity"
	"github.com/foodnest/order-engine/internal/redisx"
)

const maxPODBytes = 5 << 20

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleOrderStatus serves the hot status poll from redis, falling back to
// the repository on a miss.
func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)

	if cached, err := s.RDB.Get(r.Context(), key).Result(); err == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": cached})
		return
	} else if !errors.Is(err, redis.Nil) {
		s.Log.Warn("status cache read failed", zap.String("order_id", id), zap.Error(err))
	}

	o, err := s.Orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.RDB.Set(r.Context(), key, string(o.Status), redisx.TTLStatusCache).Err(); err != nil {
		s.Log.Warn("status cache write failed", zap.String("order_id", id), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Status)})
}

func (s *Server) dropStatusCache(r *http.Request, id string) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if err := s.RDB.Del(r.Context(), key).Err(); err != nil {
		s.Log.Warn("status cache invalidation failed", zap.String("order_id", id), zap.Error(err))
	}
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.Orders.ListFiltered(r.Context(), r.URL.Query().Get("userId"), r.URL.Query().Get("phone"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.Orders.ListByCustomer(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	o, err := s.Orders.UpdateStatus(r.Context(), id, req.Status, "admin", req.Message, "")
	if err != nil {
		writeError(w, err)
		return
	}
	s.dropStatusCache(r, id)
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Orders.DirectCancel(r.Context(), id, callerID); err != nil {
		writeError(w, err)
		return
	}
	s.dropStatusCache(r, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Orders.RequestCancel(r.Context(), id, callerID); err != nil {
		writeError(w, err)
		return
	}
	s.dropStatusCache(r, id)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancel requested"})
}

func (s *Server) handleCancelApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Orders.ApproveCancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.dropStatusCache(r, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleCourierDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		CourierName string `json:"courier_name"`
		TrackingID  string `json:"tracking_id"`
		TrackURL    string `json:"track_url"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if err := s.Orders.UpdateCourierDetails(r.Context(), id, req.CourierName, req.TrackingID, req.TrackURL); err != nil {
		writeError(w, err)
		return
	}
	s.dropStatusCache(r, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "shipped"})
}

func (s *Server) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Address string `json:"address"`
	}
	if err := decode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if err := s.Orders.UpdateAddress(r.Context(), chi.URLParam(r, "id"), callerID, body.Address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleUpdatePhone(w http.ResponseWriter, r *http.Request) {
	callerID, err := identity.CallerID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Phone string `json:"phone"`
	}
	if err := decode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if err := s.Orders.UpdatePhone(r.Context(), chi.URLParam(r, "id"), callerID, body.Phone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.Orders.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttachPOD(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, maxPODBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty image"})
		return
	}
	url, err := s.Orders.AttachPODImage(r.Context(), id, data, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
