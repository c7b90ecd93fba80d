package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshkart/order-service/internal/domain/order"
	"github.com/freshkart/order-service/internal/domain/user"
)

// placeOrder handles POST /orders.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	o, err := h.service.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:        req.UserID,
		Items:         toDomainItems(req.Items),
		Subtotal:      decimal.NewFromFloat(req.Subtotal),
		Shipping:      decimal.NewFromFloat(req.Shipping),
		Tax:           decimal.NewFromFloat(req.Tax),
		Total:         decimal.NewFromFloat(req.Total),
		Address:       req.Address,
		DeliveryDate:  req.DeliveryDate,
		OrderedAt:     req.OrderedTime,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.mapPlacementError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toOrderResponse(o))
}

// getOrder handles GET /orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// listOrders handles GET /orders and GET /orders?userId=...
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		list []order.Order
		err  error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		list, err = h.orders.ListByUser(r.Context(), userID)
	} else {
		list, err = h.orders.ListAll(r.Context())
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(list))
	for i := range list {
		resp[i] = toOrderResponse(&list[i])
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// cancelOrder handles PATCH /orders/{id}/cancel. Cancellation is
// unconditional: a Delivered order can still be cancelled, and the
// reconciliation pass will never resurrect it.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// reorder handles POST /orders/{id}/reorder.
func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	items, err := h.service.Reorder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toItemPayloads(items))
}

// mapPlacementError converts placement failures to client responses.
func (h *Handler) mapPlacementError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr *order.InvalidQuantityError
		idErr *order.InvalidDateError
	)
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrTotalsMismatch):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &iqErr):
		writeError(w, r, http.StatusUnprocessableEntity, iqErr.Error())
	case errors.As(err, &idErr):
		writeError(w, r, http.StatusUnprocessableEntity, idErr.Error())
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}
