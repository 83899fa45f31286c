package handler

import (
	"context"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a health check handler that verifies storage connectivity.
func Health(db pinger, backend string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		h := BaseHandler{}
		_ = h.writeJSON(w, code, envelope{"status": status, "storage": backend}, nil)
	}
}
