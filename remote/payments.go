package remote

import (
	"context"
	"net/http"

	"github.com/rpupo63/unified-personal-site-frontend/models"
)

const accountPaymentsRoute = "/api/account-payments"

func (c *Client) AccountPayments(ctx context.Context, creds Credentials) (models.AccountPayments, error) {
	var payments models.AccountPayments
	err := c.doJSON(ctx, creds, call{http.MethodGet, accountPaymentsRoute, accountPaymentsRoute}, nil, &payments)
	return payments, err
}

func (c *Client) CreateSubscription(ctx context.Context, creds Credentials, req models.SubscribeRequest) error {
	return c.doJSON(ctx, creds, call{http.MethodPost, accountPaymentsRoute, accountPaymentsRoute}, req, nil)
}

func (c *Client) CancelSubscription(ctx context.Context, creds Credentials, subscriptionID string) error {
	cl := call{http.MethodDelete, accountPaymentsRoute + "/{id}", pathf(accountPaymentsRoute+"/%s?type=subscription", subscriptionID)}
	return c.doJSON(ctx, creds, cl, nil, nil)
}

func (c *Client) CancelPayment(ctx context.Context, creds Credentials, paymentID string) error {
	cl := call{http.MethodDelete, accountPaymentsRoute + "/{id}", pathf(accountPaymentsRoute+"/%s?type=payment", paymentID)}
	return c.doJSON(ctx, creds, cl, nil, nil)
}

// GenerateInvoice returns the rendered invoice document for a payment.
func (c *Client) GenerateInvoice(ctx context.Context, creds Credentials, req models.InvoiceRequest) (Blob, error) {
	return c.doBlob(ctx, creds, call{http.MethodPost, "/api/invoice/generate", "/api/invoice/generate"}, req)
}
