package http

import (
	"encoding/json"
	"net/http"
	"time"

	"tabletap/internal/payments"
	"tabletap/internal/store"
	"tabletap/pkg/logger"
	"tabletap/pkg/models"

	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	service *payments.Service
	logger  *logger.Logger
}

func NewPaymentHandler(service *payments.Service, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: log}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req models.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	payment, err := h.service.Create(r.Context(), actorFrom(r), req)
	if err != nil {
		h.logger.Error(requestID, "payment_create_failed", "Failed to accept payment", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "payment_accepted", "Payment accepted for order "+payment.OrderID)
	writeJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "paymentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.PaymentFilter{
		OrderID: r.URL.Query().Get("order_id"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = models.PaymentStatus(status)
	}
	if method := r.URL.Query().Get("method"); method != "" {
		filter.Method = models.PaymentMethod(method)
	}

	list, err := h.service.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	payment, err := h.service.Refund(r.Context(), actorFrom(r), chi.URLParam(r, "paymentID"), req.Reason)
	if err != nil {
		h.logger.Error(requestID, "payment_refund_failed", "Failed to refund payment", err)
		writeError(w, err)
		return
	}

	h.logger.Info(requestID, "payment_refunded", "Payment "+payment.ID+" refunded")
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	if err := h.service.Remove(r.Context(), actorFrom(r), chi.URLParam(r, "paymentID")); err != nil {
		h.logger.Error(requestID, "payment_remove_failed", "Failed to remove payment", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) DailyTotal(w http.ResponseWriter, r *http.Request) {
	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	total, err := h.service.DailyTotal(r.Context(), actorFrom(r), day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}
