// Package http exposes the order, kitchen, payment and event APIs.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tabletap/internal/broadcast"
	"tabletap/internal/core"
	"tabletap/internal/kitchen"
	"tabletap/internal/orders"
	"tabletap/internal/payments"
	"tabletap/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

func NewServer(
	port int,
	orderService *orders.Service,
	coordinator *kitchen.Coordinator,
	paymentService *payments.Service,
	hub *broadcast.Hub,
	log *logger.Logger,
) *Server {
	orderHandler := NewOrderHandler(orderService, log)
	kitchenHandler := NewKitchenHandler(coordinator, log)
	paymentHandler := NewPaymentHandler(paymentService, log)
	eventHandler := NewEventHandler(hub, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(identity)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orderHandler.Create)
		r.Get("/", orderHandler.List)
		r.Get("/{orderID}", orderHandler.Get)
		r.Patch("/{orderID}/status", orderHandler.UpdateStatus)
		r.Patch("/{orderID}/items/{itemID}/status", orderHandler.UpdateItemStatus)
		r.Post("/{orderID}/cancel", orderHandler.Cancel)
		r.Post("/{orderID}/complete", orderHandler.Complete)
	})

	r.Route("/kitchen", func(r chi.Router) {
		r.Get("/queue", kitchenHandler.Queue)
		r.Get("/pending", kitchenHandler.Pending)
		r.Get("/in-progress", kitchenHandler.InProgress)
		r.Post("/orders/{orderID}/start", kitchenHandler.StartOrder)
		r.Post("/orders/{orderID}/items/{itemID}/ready", kitchenHandler.MarkItemReady)
		r.Post("/orders/{orderID}/complete", kitchenHandler.CompleteOrder)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", paymentHandler.Create)
		r.Get("/", paymentHandler.List)
		r.Get("/daily-total", paymentHandler.DailyTotal)
		r.Get("/{paymentID}", paymentHandler.Get)
		r.Post("/{paymentID}/refund", paymentHandler.Refund)
		r.Delete("/{paymentID}", paymentHandler.Remove)
	})

	r.Get("/events", eventHandler.Stream)

	return &Server{
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
		logger: log,
	}
}

// Run serves until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	s.logger.Info("startup", "server_started", "Listening on "+s.srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutdown", "graceful_shutdown_started", "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), core.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("shutdown", "graceful_shutdown_completed", "HTTP server shut down gracefully")
	return nil
}
