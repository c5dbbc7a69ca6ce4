package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/subscription"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type subscriptionHandler struct {
	responder Responder
	logger    zerolog.Logger
	now       func() time.Time
}

func newSubscriptionHandler() subscriptionHandler {
	logger := log.With().Str("handlerName", "subscriptionHandler").Logger()

	return subscriptionHandler{
		responder: NewResponder(logger),
		logger:    logger,
		now:       time.Now,
	}
}

func (h subscriptionHandler) dashboard(ws *workspace) subscription.Dashboard {
	orchestrator := ws.subscriptions
	return subscription.BuildDashboard(orchestrator.Store().Snapshot(), orchestrator.DownloadsInFlight(), h.now())
}

// ensureLoaded reloads when nothing was loaded yet for this workspace
func (h subscriptionHandler) ensureLoaded(w http.ResponseWriter, r *http.Request, ws *workspace) bool {
	if ws.subscriptions.Store().Snapshot().Loaded {
		return true
	}
	if err := ws.subscriptions.Reload(r.Context()); err != nil {
		failRequest(w, r, h.responder, err)
		return false
	}
	return true
}

func confirmationRequired() *errs.ApiErr {
	err := errs.NewApiErr(http.StatusPreconditionRequired, "confirmation required")
	err.Details = "Repeat the request with confirm=true to proceed"
	err.Field = "confirm"
	return err
}

// getSubscription returns the subscription dashboard
// @Summary Subscription dashboard
// @Description Plans, the active subscription and the payment history. refresh=true reloads from the API.
// @Tags Subscription
// @Produce json
// @Success 200 {object} subscription.Dashboard
// @Failure 401 {object} ErrorResponse "Unauthorized - Session ended"
// @Router /account/subscription [get]
func (h subscriptionHandler) getSubscription() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		if r.URL.Query().Get("refresh") == "true" {
			if err := ws.subscriptions.Reload(r.Context()); err != nil {
				failRequest(w, r, h.responder, err)
				return
			}
		} else if !h.ensureLoaded(w, r, ws) {
			return
		}

		h.responder.WriteJSON(w, h.dashboard(ws))
	}
}

// subscribe starts a subscription; the amount comes from the price table
// @Summary Subscribe
// @Tags Subscription
// @Accept json
// @Produce json
// @Param body body subscribeRequest true "Plan and billing cycle"
// @Success 200 {object} subscription.Dashboard
// @Failure 400 {object} ErrorResponse "Bad Request - Unknown plan or billing cycle"
// @Router /account/subscription [post]
func (h subscriptionHandler) subscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())

		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("subscription", err))
			return
		}

		err := ws.subscriptions.Subscribe(r.Context(), models.PlanType(req.PlanType), models.BillingCycle(req.BillingCycle))
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, h.dashboard(ws))
	}
}

// cancelSubscription cancels the active subscription; requires confirm=true
func (h subscriptionHandler) cancelSubscription() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		if !h.ensureLoaded(w, r, ws) {
			return
		}

		ctx := ctxWithConfirmed(r.Context(), r.URL.Query().Get("confirm") == "true")
		err := ws.subscriptions.CancelSubscription(ctx)
		if errors.Is(err, subscription.ErrDeclined) {
			h.responder.WriteError(w, confirmationRequired())
			return
		}
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, h.dashboard(ws))
	}
}

// cancelPayment cancels a pending payment; requires confirm=true
func (h subscriptionHandler) cancelPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		paymentID := chi.URLParam(r, "paymentID")

		ctx := ctxWithConfirmed(r.Context(), r.URL.Query().Get("confirm") == "true")
		err := ws.subscriptions.CancelPayment(ctx, paymentID)
		if errors.Is(err, subscription.ErrDeclined) {
			h.responder.WriteError(w, confirmationRequired())
			return
		}
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, h.dashboard(ws))
	}
}

// downloadInvoice renders a payment's invoice and saves it to the asset store. The
// invoice id defaults to the one on the loaded payment.
func (h subscriptionHandler) downloadInvoice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := ctxGetWorkspace(r.Context())
		paymentID := chi.URLParam(r, "paymentID")

		var req invoiceRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				h.responder.WriteError(w, errs.NewMalformedPayloadError("invoice", err))
				return
			}
		}
		if req.InvoiceID == "" {
			if !h.ensureLoaded(w, r, ws) {
				return
			}
			if payment, ok := ws.subscriptions.Store().Payment(paymentID); ok {
				req.InvoiceID = payment.InvoiceID
			}
		}

		location, err := ws.subscriptions.DownloadInvoice(r.Context(), paymentID, req.InvoiceID)
		if err != nil {
			failRequest(w, r, h.responder, err)
			return
		}
		h.responder.WriteJSON(w, savedFileResponse{Location: location})
	}
}
