// Package marketplace lists the projects an account can download and fetches their ZIPs.
package marketplace

import (
	"context"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/inflight"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const paymentCompleted = "completed"

type API interface {
	ProjectPayments(ctx context.Context, creds remote.Credentials) ([]models.ProjectPayment, error)
	Projects(ctx context.Context, creds remote.Credentials) ([]models.Project, error)
	DownloadProjectZip(ctx context.Context, creds remote.Credentials, projectID string) (remote.Blob, error)
}

// Item is a downloadable project with the buyer's standing on it.
type Item struct {
	Project     models.Project `json:"project"`
	Purchased   bool           `json:"purchased"`
	PurchasedAt *time.Time     `json:"purchasedAt,omitempty"`
	Downloading bool           `json:"downloading"`
	CanDownload bool           `json:"canDownload"`
	// RemainingDownloads is -1 when the project has no limit.
	RemainingDownloads int `json:"remainingDownloads"`
}

type Marketplace struct {
	api    API
	creds  remote.Credentials
	sink   storage.Sink
	guard  *inflight.Set
	logger zerolog.Logger
}

func New(api API, creds remote.Credentials, sink storage.Sink) *Marketplace {
	return &Marketplace{
		api:    api,
		creds:  creds,
		sink:   sink,
		guard:  inflight.NewSet(),
		logger: log.With().Str("component", "marketplace").Logger(),
	}
}

// Purchased joins the completed project payments with the project list. Free projects
// are included; paid ones only once bought.
func (m *Marketplace) Purchased(ctx context.Context) ([]Item, error) {
	payments, err := m.api.ProjectPayments(ctx, m.creds)
	if err != nil {
		return nil, err
	}
	projects, err := m.api.Projects(ctx, m.creds)
	if err != nil {
		return nil, err
	}

	bought := make(map[string]time.Time, len(payments))
	for _, payment := range payments {
		if payment.Status != paymentCompleted {
			continue
		}
		if first, ok := bought[payment.ProjectID]; !ok || payment.Date.Before(first) {
			bought[payment.ProjectID] = payment.Date
		}
	}

	items := []Item{}
	for _, project := range projects {
		date, purchased := bought[project.ID]
		if project.IsPaid && !purchased {
			continue
		}
		if !project.IsPaid && project.Status != "" && project.Status != models.ProjectStatusPublished {
			continue
		}

		item := Item{
			Project:            project,
			Purchased:          purchased,
			Downloading:        m.guard.Busy(project.ID),
			RemainingDownloads: -1,
		}
		if purchased {
			item.PurchasedAt = &date
		}
		if project.DownloadLimit > 0 {
			item.RemainingDownloads = max(project.DownloadLimit-project.DownloadCount, 0)
		}
		item.CanDownload = !project.DownloadsExhausted() && !item.Downloading
		items = append(items, item)
	}
	return items, nil
}

// Download fetches the project's ZIP and saves it as <slug>.zip.
func (m *Marketplace) Download(ctx context.Context, project models.Project) (string, error) {
	if project.DownloadsExhausted() {
		return "", errs.NewForbiddenError("download limit reached for " + project.Title)
	}

	release, ok := m.guard.Acquire(project.ID)
	if !ok {
		return "", errs.NewInFlightError("download", project.ID)
	}
	defer release()

	blob, err := m.api.DownloadProjectZip(ctx, m.creds, project.ID)
	if err != nil {
		m.logger.Warn().Err(err).Str("projectID", project.ID).Msg("Project download failed")
		return "", err
	}

	name := project.Slug
	if name == "" {
		name = models.GenerateSlug(project.Title)
	}
	if name == "" {
		name = project.ID
	}

	location, err := m.sink.Save(ctx, name+".zip", "application/zip", blob.Data)
	if err != nil {
		return "", err
	}

	m.logger.Info().Str("projectID", project.ID).Str("location", location).Msg("Project downloaded")
	return location, nil
}

// DownloadByID downloads a project the account has access to.
func (m *Marketplace) DownloadByID(ctx context.Context, projectID string) (string, error) {
	items, err := m.Purchased(ctx)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.Project.ID == projectID {
			return m.Download(ctx, item.Project)
		}
	}
	return "", errs.NewNotFoundError("purchased project " + projectID)
}
