package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type accountHandler struct {
	responder Responder
	logger    zerolog.Logger
	client    *remote.Client
}

func newAccountHandler(client *remote.Client) accountHandler {
	logger := log.With().Str("handlerName", "accountHandler").Logger()

	return accountHandler{
		responder: NewResponder(logger),
		logger:    logger,
		client:    client,
	}
}

func (h accountHandler) getProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		user, err := h.client.GetUser(r.Context(), ws.session)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

func (h accountHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		var update models.ProfileUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("profile", err))
			return
		}

		user, err := h.client.UpdateUser(r.Context(), ws.session, update)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		ws.forgetUser()
		h.responder.WriteJSON(w, user)
	}
}

func (h accountHandler) loginHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		history, err := h.client.LoginHistory(r.Context(), ws.session)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, history)
	}
}

// logoutSession signs out another device of the same account
func (h accountHandler) logoutSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing sessionID"))
			return
		}

		if err := h.client.LogoutSession(r.Context(), ws.session, sessionID); err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// twoFactor runs one step of two-factor enrolment: enable, verify or disable
func (h accountHandler) twoFactor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		action := chi.URLParam(r, "action")
		if action != "enable" && action != "verify" && action != "disable" {
			h.responder.WriteError(w, errs.NewNotFoundError("two-factor action "+action))
			return
		}

		var body models.TwoFactorCode
		if action != "enable" {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				h.responder.WriteError(w, errs.NewMalformedPayloadError("two-factor", err))
				return
			}
			if body.Code == "" {
				h.responder.WriteError(w, errs.NewMissingRequiredFieldError("code"))
				return
			}
		}

		var (
			result any
			err    error
		)
		switch action {
		case "enable":
			result, err = h.client.EnableTwoFactor(r.Context(), ws.session)
		case "verify":
			result, err = h.client.VerifyTwoFactor(r.Context(), ws.session, body.Code)
		default:
			result, err = h.client.DisableTwoFactor(r.Context(), ws.session, body.Code)
		}
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}

		ws.forgetUser()
		h.responder.WriteJSON(w, result)
	}
}

func (h accountHandler) getEmailPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		prefs, err := h.client.GetEmailPreferences(r.Context(), ws.session)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, prefs)
	}
}

func (h accountHandler) updateEmailPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		var prefs models.EmailPreferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("email preferences", err))
			return
		}

		updated, err := h.client.UpdateEmailPreferences(r.Context(), ws.session, prefs)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, updated)
	}
}

// resetEmailPreferences restores the defaults and answers with them
func (h accountHandler) resetEmailPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		if err := h.client.ResetEmailPreferences(r.Context(), ws.session); err != nil {
			failRequest(w, r, h.responder, err)
			return
		}

		prefs, err := h.client.GetEmailPreferences(r.Context(), ws.session)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, prefs)
	}
}
