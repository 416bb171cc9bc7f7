package http

import (
	"encoding/json"
	"net/http"

	"tabletap/internal/orders"
	"tabletap/internal/store"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	service *orders.Service
	logger  *logger.Logger
}

func NewOrderHandler(service *orders.Service, log *logger.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: log}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error(requestID, "validation_failed", "Invalid JSON payload", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), actorFrom(r), req)
	if err != nil {
		h.logger.Error(requestID, "order_create_failed", "Failed to create order", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "order_created", "Order "+order.Number+" created")
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.OrderFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Statuses = []models.OrderStatus{models.OrderStatus(status)}
	}
	if orderType := r.URL.Query().Get("type"); orderType != "" {
		filter.Type = models.OrderType(orderType)
	}
	if tableID := r.URL.Query().Get("table_id"); tableID != "" {
		filter.TableID = tableID
	}

	list, err := h.service.ListOrders(r.Context(), actorFrom(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), actorFrom(r),
		chi.URLParam(r, "orderID"), models.OrderStatus(req.Status))
	if err != nil {
		h.logger.Error(requestID, "status_update_failed", "Failed to update order status", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateItemStatus(r.Context(), actorFrom(r),
		chi.URLParam(r, "orderID"), chi.URLParam(r, "itemID"), models.ItemStatus(req.Status))
	if err != nil {
		h.logger.Error(requestID, "item_update_failed", "Failed to update item status", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	order, err := h.service.CancelOrder(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		h.logger.Error(requestID, "order_cancel_failed", "Failed to cancel order", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "order_cancelled", "Order "+order.Number+" cancelled")
	writeJSON(w, http.StatusOK, order)
}

type completeRequest struct {
	Method string `json:"method"`
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	order, err := h.service.CompleteOrder(r.Context(), actorFrom(r),
		chi.URLParam(r, "orderID"), models.PaymentMethod(req.Method))
	if err != nil {
		h.logger.Error(requestID, "order_complete_failed", "Failed to complete order", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "order_completed", "Order "+order.Number+" completed")
	writeJSON(w, http.StatusOK, order)
}
