package httpx

import (
	"net/http"
	"time"

	"github.com/foodnest/order-engine/internal/courier"
)

// handleTrackingWebhook ingests a courier push event. Unknown tracking ids
// still return 200 so the courier stops retrying them.
func (s *Server) handleTrackingWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackingID string    `json:"tracking_id"`
		Status     string    `json:"status"`
		Timestamp  time.Time `json:"timestamp"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if req.TrackingID == "" || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tracking_id and status required"})
		return
	}
	ev := courier.TrackingEvent{Status: req.Status, Time: req.Timestamp}
	if err := s.Reconciler.ApplyCourierEvent(r.Context(), req.TrackingID, ev); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
