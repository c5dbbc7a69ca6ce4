package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type sessionHandler struct {
	responder  Responder
	logger     zerolog.Logger
	manager    *session.Manager
	workspaces *workspaces
}

func newSessionHandler(manager *session.Manager, workspaces *workspaces) sessionHandler {
	logger := log.With().Str("handlerName", "sessionHandler").Logger()

	return sessionHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		manager:    manager,
		workspaces: workspaces,
	}
}

// login starts a session for a bearer token issued by the auth provider
// @Summary Sign in
// @Description Stores the bearer token server-side and sets the session cookie
// @Tags Session
// @Accept json
// @Produce json
// @Param body body loginRequest true "Bearer token"
// @Success 201 {object} sessionResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or expired token"
// @Router /session [post]
func (h sessionHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("login", err))
			return
		}
		if req.Token == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("token"))
			return
		}

		sess, err := h.manager.Login(r.Context(), req.Token)
		if err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("token", err.Error()))
			return
		}

		h.workspaces.open(sess)
		setSessionCookie(w, sess)

		response := sessionResponse{SessionID: sess.ID(), Authenticated: true}
		if expiresAt := sess.ExpiresAt(); !expiresAt.IsZero() {
			response.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
		}

		h.logger.Info().Str("sessionID", sess.ID()).Msg("Session started")
		h.responder.WriteCreated(w, response)
	}
}

// logout ends the session. It succeeds even when there is no session.
func (h sessionHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if id != "" {
			if ws, ok := h.workspaces.lookup(id); ok {
				if err := ws.session.Logout(r.Context()); err != nil {
					h.logger.Error().Err(err).Str("sessionID", id).Msg("Failed to remove session")
				}
			} else if sess, err := h.manager.Resume(r.Context(), id); err == nil {
				if err := sess.Logout(r.Context()); err != nil {
					h.logger.Error().Err(err).Str("sessionID", id).Msg("Failed to remove session")
				}
			}
			h.workspaces.drop(id)
		}

		clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
