package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"tabletap/pkg/models"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

// identity trusts the authenticated triple the gateway forwards.
// Requests without a tenant are rejected before any handler runs.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := models.Actor{
			TenantID: r.Header.Get("X-Tenant-ID"),
			ID:       r.Header.Get("X-Actor-ID"),
			Role:     r.Header.Get("X-Actor-Role"),
		}
		if actor.TenantID == "" {
			http.Error(w, "missing tenant", http.StatusUnauthorized)
			return
		}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = "req-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(r *http.Request) models.Actor {
	actor, _ := r.Context().Value(actorKey).(models.Actor)
	return actor
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
