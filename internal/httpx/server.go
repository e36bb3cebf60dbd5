package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/foodnest/order-engine/internal/cart"
	"github.com/foodnest/order-engine/internal/checkout"
	"github.com/foodnest/order-engine/internal/identity"
	"github.com/foodnest/order-engine/internal/inventory"
	"github.com/foodnest/order-engine/internal/orders"
	"github.com/foodnest/order-engine/internal/reconcile"
)

// Server wires the engine's services onto one mux.
type Server struct {
	Orders     *orders.Service
	Checkout   *checkout.Service
	Reconciler *reconcile.Reconciler
	Ledger     inventory.Ledger
	Carts      cart.Store
	RDB        *redis.Client
	Log        *zap.Logger
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(identity.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", s.handleCheckout)
		r.Post("/orders/verify", s.handleVerifyPayment)
		r.Get("/orders", s.handleListOrders)
		r.Get("/orders/mine", s.handleMyOrders)

		r.Route("/orders/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetOrder)
			r.Get("/status", s.handleOrderStatus)
			r.Put("/status", s.handleUpdateStatus)
			r.Post("/cancel", s.handleCancel)
			r.Post("/cancel-request", s.handleCancelRequest)
			r.Post("/cancel-approve", s.handleCancelApprove)
			r.Put("/courier", s.handleCourierDetails)
			r.Put("/address", s.handleUpdateAddress)
			r.Put("/phone", s.handleUpdatePhone)
			r.Post("/pod", s.handleAttachPOD)
			r.Delete("/", s.handleDeleteOrder)
		})

		r.Get("/cart", s.handleGetCart)
		r.Put("/cart", s.handlePutCart)
		r.Delete("/cart", s.handleClearCart)

		r.Post("/webhook/tracking", s.handleTrackingWebhook)

		r.Get("/items", s.handleListItems)
		r.Get("/items/low-stock", s.handleLowStock)
		r.Post("/items/{id}/stock", s.handleSetStock)
		r.Post("/items/{id}/stock/adjust", s.handleAdjustStock)
		r.Get("/items/{id}/stock-log", s.handleStockLog)
	})

	return r
}
