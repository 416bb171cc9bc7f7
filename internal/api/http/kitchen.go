package http

import (
	"context"
	"net/http"

	"tabletap/internal/kitchen"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"

	"github.com/go-chi/chi/v5"
)

type KitchenHandler struct {
	coordinator *kitchen.Coordinator
	logger      *logger.Logger
}

func NewKitchenHandler(coordinator *kitchen.Coordinator, log *logger.Logger) *KitchenHandler {
	return &KitchenHandler{coordinator: coordinator, logger: log}
}

func (h *KitchenHandler) list(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, models.Actor) ([]models.Order, error),
) {
	list, err := fn(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *KitchenHandler) Queue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.coordinator.Queue)
}

func (h *KitchenHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.coordinator.Pending)
}

func (h *KitchenHandler) InProgress(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.coordinator.InProgress)
}

func (h *KitchenHandler) StartOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	order, err := h.coordinator.StartOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		h.logger.Error(requestID, "kitchen_start_failed", "Failed to start order", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "kitchen_started", "Order "+order.Number+" started")
	writeJSON(w, http.StatusOK, order)
}

func (h *KitchenHandler) MarkItemReady(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	order, err := h.coordinator.MarkItemReady(r.Context(), actorFrom(r),
		chi.URLParam(r, "orderID"), chi.URLParam(r, "itemID"))
	if err != nil {
		h.logger.Error(requestID, "item_ready_failed", "Failed to mark item ready", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *KitchenHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	order, err := h.coordinator.CompleteOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		h.logger.Error(requestID, "kitchen_complete_failed", "Failed to complete order", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "kitchen_completed", "Order "+order.Number+" completed")
	writeJSON(w, http.StatusOK, order)
}
