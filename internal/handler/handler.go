// Package handler exposes the order lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/freshkart/order-service/internal/domain/order"
)

// Handler holds the HTTP endpoints for order placement, queries,
// cancellation, and reorder.
type Handler struct {
	orders  order.Repository
	service *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders order.Repository, service *order.Service) *Handler {
	return &Handler{orders: orders, service: service}
}

// Routes mounts the order endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Patch("/{id}/cancel", h.cancelOrder)
		r.Post("/{id}/reorder", h.reorder)
	})
	return r
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Debug("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: message})
}
