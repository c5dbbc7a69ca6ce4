package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpupo63/unified-personal-site-frontend/models"
)

// ProjectPayments lists the account's project purchases.
func (c *Client) ProjectPayments(ctx context.Context, creds Credentials) ([]models.ProjectPayment, error) {
	var payments []models.ProjectPayment
	err := c.doJSON(ctx, creds, call{http.MethodGet, "/api/projectpayments", "/api/projectpayments"}, nil, &payments)
	return payments, err
}

func (c *Client) Projects(ctx context.Context, creds Credentials) ([]models.Project, error) {
	var projects []models.Project
	err := c.doJSON(ctx, creds, call{http.MethodGet, "/api/projects", "/api/projects"}, nil, &projects)
	return projects, err
}

func (c *Client) DownloadProjectZip(ctx context.Context, creds Credentials, projectID string) (Blob, error) {
	query := url.Values{"projectId": {projectID}}
	cl := call{http.MethodGet, "/api/projects/download-zip", "/api/projects/download-zip?" + query.Encode()}
	return c.doBlob(ctx, creds, cl, nil)
}
