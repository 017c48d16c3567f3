package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kittygram/kittygram-api/api/services"
	"github.com/rs/zerolog"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health godoc
// @Summary Health check
// @Description Reports whether the database is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} models.ErrorResponse
// @Router /healthz [get]
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			services.HandleErrResponse(w, http.StatusServiceUnavailable, err)
			return
		}
		services.WriteResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
