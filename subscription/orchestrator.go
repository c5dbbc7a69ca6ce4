// Package subscription drives the account's subscription and payment history: it loads
// the server snapshot, issues the mutations, and saves invoices.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/inflight"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrDeclined is returned when the user did not confirm a cancellation. Nothing was sent.
var ErrDeclined = errors.New("cancellation not confirmed")

// API is the part of the remote client the orchestrator calls.
type API interface {
	AccountPayments(ctx context.Context, creds remote.Credentials) (models.AccountPayments, error)
	CreateSubscription(ctx context.Context, creds remote.Credentials, req models.SubscribeRequest) error
	CancelSubscription(ctx context.Context, creds remote.Credentials, subscriptionID string) error
	CancelPayment(ctx context.Context, creds remote.Credentials, paymentID string) error
	GenerateInvoice(ctx context.Context, creds remote.Credentials, req models.InvoiceRequest) (remote.Blob, error)
}

// Session supplies the token and is logged out when the account turns out to be deleted.
type Session interface {
	remote.Credentials
	Logout(ctx context.Context) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Always confirms everything.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

const reloadKey = "account-payments"

// reloadTimeout bounds a shared reload, which outlives the caller that started it.
const reloadTimeout = 30 * time.Second

type Orchestrator struct {
	api       API
	session   Session
	sink      storage.Sink
	confirmer Confirmer
	store     *Store

	reloads    singleflight.Group
	generation atomic.Uint64
	invoices   *inflight.Set
	logger     zerolog.Logger
}

func NewOrchestrator(api API, session Session, sink storage.Sink, confirmer Confirmer) *Orchestrator {
	if confirmer == nil {
		confirmer = Always
	}
	return &Orchestrator{
		api:       api,
		session:   session,
		sink:      sink,
		confirmer: confirmer,
		store:     NewStore(),
		invoices:  inflight.NewSet(),
		logger:    log.With().Str("component", "subscriptionOrchestrator").Logger(),
	}
}

func (o *Orchestrator) Store() *Store {
	return o.store
}

// DownloadsInFlight lists payment ids whose invoice is being generated.
func (o *Orchestrator) DownloadsInFlight() []string {
	return o.invoices.Keys()
}

// Reload fetches the snapshot. Concurrent reloads of the same generation share one request.
func (o *Orchestrator) Reload(ctx context.Context) error {
	key := fmt.Sprintf("%s:%d", reloadKey, o.generation.Load())
	_, err, shared := o.reloads.Do(key, func() (any, error) {
		// Joined callers wait on this load too, so it must not end when the first caller's ctx does.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
		defer cancel()
		return nil, o.load(loadCtx)
	})
	if shared {
		o.logger.Debug().Str("key", key).Msg("Joined in-flight reload")
	}
	return err
}

func (o *Orchestrator) load(ctx context.Context) error {
	version := o.store.begin()

	data, err := o.api.AccountPayments(ctx, o.session)
	if err != nil {
		o.store.fail(version, errs.UserMessage(err))
		return o.handleRemoteErr(ctx, "reload", err)
	}

	if !o.store.apply(version, data) {
		o.logger.Debug().Uint64("version", version).Msg("Discarded stale account payments")
	}
	return nil
}

// reloadAfterMutation starts a reload that will not join a flight begun before the mutation.
func (o *Orchestrator) reloadAfterMutation(ctx context.Context) error {
	o.generation.Add(1)
	return o.Reload(ctx)
}

// Subscribe starts a subscription to plan billed every cycle. The amount comes from the
// local price table; the snapshot is only updated by the reload that follows.
func (o *Orchestrator) Subscribe(ctx context.Context, plan models.PlanType, cycle models.BillingCycle) error {
	amount, err := models.PlanPrice(plan, cycle)
	if err != nil {
		return o.fail(ctx, "subscribe", errs.NewValidationError(err.Error()))
	}

	req := models.SubscribeRequest{PlanType: plan, BillingCycle: cycle, Amount: amount}
	if err := o.api.CreateSubscription(ctx, o.session, req); err != nil {
		return o.fail(ctx, "subscribe", err)
	}

	o.logger.Info().Str("plan", string(plan)).Str("cycle", string(cycle)).Int64("amount", amount).Msg("Subscription created")
	return o.reloadAfterMutation(ctx)
}

// CancelSubscription cancels the active subscription after confirmation.
func (o *Orchestrator) CancelSubscription(ctx context.Context) error {
	active, ok := o.store.Active()
	if !ok {
		return o.fail(ctx, "cancelSubscription", errs.NewValidationError("No active subscription to cancel"))
	}

	if !o.confirmer.Confirm(ctx, "Are you sure you want to cancel your subscription?") {
		return ErrDeclined
	}

	if err := o.api.CancelSubscription(ctx, o.session, active.ID); err != nil {
		return o.fail(ctx, "cancelSubscription", err)
	}

	o.logger.Info().Str("subscriptionID", active.ID).Msg("Subscription cancelled")
	return o.reloadAfterMutation(ctx)
}

// CancelPayment cancels a pending payment after confirmation.
func (o *Orchestrator) CancelPayment(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return o.fail(ctx, "cancelPayment", errs.NewValidationError("Payment id is required"))
	}

	if !o.confirmer.Confirm(ctx, "Are you sure you want to cancel this payment?") {
		return ErrDeclined
	}

	if err := o.api.CancelPayment(ctx, o.session, paymentID); err != nil {
		return o.fail(ctx, "cancelPayment", err)
	}

	o.logger.Info().Str("paymentID", paymentID).Msg("Payment cancelled")
	return o.reloadAfterMutation(ctx)
}

// DownloadInvoice renders the invoice of a payment and saves it as invoice-<invoiceID>.pdf.
// It returns where the file was saved.
func (o *Orchestrator) DownloadInvoice(ctx context.Context, paymentID, invoiceID string) (string, error) {
	if paymentID == "" || invoiceID == "" {
		return "", o.fail(ctx, "downloadInvoice", errs.NewValidationError("Payment id and invoice id are required"))
	}

	release, ok := o.invoices.Acquire(paymentID)
	if !ok {
		return "", errs.NewInFlightError("invoice download", paymentID)
	}
	defer release()

	blob, err := o.api.GenerateInvoice(ctx, o.session, models.InvoiceRequest{PaymentID: paymentID, InvoiceID: invoiceID})
	if err != nil {
		return "", o.fail(ctx, "downloadInvoice", err)
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	location, err := o.sink.Save(ctx, models.InvoiceFileName(invoiceID), contentType, blob.Data)
	if err != nil {
		return "", o.fail(ctx, "downloadInvoice", err)
	}

	o.logger.Info().Str("paymentID", paymentID).Str("location", location).Msg("Invoice saved")
	return location, nil
}

// fail stores the user-facing message and, for a deleted account, ends the session.
func (o *Orchestrator) fail(ctx context.Context, operation string, err error) error {
	o.store.setError(errs.UserMessage(err))
	return o.handleRemoteErr(ctx, operation, err)
}

func (o *Orchestrator) handleRemoteErr(ctx context.Context, operation string, err error) error {
	if !errs.IsAccountDeleted(err) {
		o.logger.Warn().Err(err).Str("operation", operation).Msg("Subscription operation failed")
		return err
	}

	o.logger.Warn().Str("operation", operation).Msg("Account no longer exists, ending session")
	o.store.reset()
	o.store.setError(errs.UserMessage(err))
	if logoutErr := o.session.Logout(ctx); logoutErr != nil {
		o.logger.Error().Err(logoutErr).Msg("Failed to end session of deleted account")
	}
	return err
}
