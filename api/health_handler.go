package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	startupTime time.Time
	check       func(ctx context.Context) error
	workspaces  *workspaces
}

func newHealthHandler(startupTime time.Time, check func(ctx context.Context) error, workspaces *workspaces) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		startupTime: startupTime,
		check:       check,
		workspaces:  workspaces,
	}
}

type healthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Workspaces int    `json:"workspaces"`
	Error      string `json:"error,omitempty"`
}

func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := healthResponse{
			Status:     "ok",
			Uptime:     time.Since(h.startupTime).Round(time.Second).String(),
			Workspaces: h.workspaces.count(),
		}

		if h.check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := h.check(ctx); err != nil {
				h.logger.Warn().Err(err).Msg("Health check failed")
				response.Status = "degraded"
				response.Error = err.Error()
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}

		h.responder.WriteJSON(w, response)
	}
}
