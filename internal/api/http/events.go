package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"tabletap/internal/broadcast"
	"tabletap/pkg/logger"
)

type EventHandler struct {
	hub    *broadcast.Hub
	logger *logger.Logger
}

func NewEventHandler(hub *broadcast.Hub, log *logger.Logger) *EventHandler {
	return &EventHandler{hub: hub, logger: log}
}

// Stream delivers the tenant's event stream as server-sent events.
// A client connecting here missed everything published before the
// subscription and reconciles with a full-state pull first.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	actor := actorFrom(r)
	sub := h.hub.Subscribe(actor.TenantID)
	defer sub.Unsubscribe()

	h.logger.Info(requestIDFrom(r), "subscriber_connected",
		"Display client subscribed for tenant "+actor.TenantID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			body, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("", "event_marshal_failed", "Failed to marshal event", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, body)
			flusher.Flush()
		}
	}
}
