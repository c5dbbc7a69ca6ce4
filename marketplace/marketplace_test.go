package marketplace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type token string

func (t token) Token() string { return string(t) }

type fakeAPI struct {
	mu         sync.Mutex
	payments   []models.ProjectPayment
	projects   []models.Project
	downloads  []string
	downloadFn func() (remote.Blob, error)
}

func (f *fakeAPI) ProjectPayments(ctx context.Context, creds remote.Credentials) ([]models.ProjectPayment, error) {
	return f.payments, nil
}

func (f *fakeAPI) Projects(ctx context.Context, creds remote.Credentials) ([]models.Project, error) {
	return f.projects, nil
}

func (f *fakeAPI) DownloadProjectZip(ctx context.Context, creds remote.Credentials, projectID string) (remote.Blob, error) {
	f.mu.Lock()
	f.downloads = append(f.downloads, projectID)
	fn := f.downloadFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return remote.Blob{ContentType: "application/zip", Data: []byte("PK")}, nil
}

func catalog() *fakeAPI {
	bought := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	return &fakeAPI{
		payments: []models.ProjectPayment{
			{ID: "pp1", ProjectID: "paid-bought", Status: "completed", Date: bought},
			{ID: "pp2", ProjectID: "paid-pending", Status: "pending"},
		},
		projects: []models.Project{
			{ID: "paid-bought", Slug: "port-scanner", IsPaid: true, Price: 1500, DownloadLimit: 3, DownloadCount: 1},
			{ID: "paid-pending", Slug: "pending", IsPaid: true},
			{ID: "free", Slug: "free-tool", Status: models.ProjectStatusPublished},
			{ID: "free-draft", Slug: "draft-tool", Status: models.ProjectStatusDraft},
			{ID: "exhausted", Slug: "used-up", IsPaid: true, DownloadLimit: 2, DownloadCount: 2},
		},
	}
}

func TestPurchasedJoinsPaymentsAndFreeProjects(t *testing.T) {
	api := catalog()
	api.payments = append(api.payments, models.ProjectPayment{ProjectID: "exhausted", Status: "completed"})
	m := New(api, token("t"), storage.NewFileSink(t.TempDir()))

	items, err := m.Purchased(context.Background())
	require.NoError(t, err)

	ids := []string{}
	for _, item := range items {
		ids = append(ids, item.Project.ID)
	}
	assert.Equal(t, []string{"paid-bought", "free", "exhausted"}, ids)

	assert.True(t, items[0].Purchased)
	require.NotNil(t, items[0].PurchasedAt)
	assert.Equal(t, 2, items[0].RemainingDownloads)
	assert.True(t, items[0].CanDownload)

	assert.False(t, items[1].Purchased)
	assert.Equal(t, -1, items[1].RemainingDownloads)

	assert.False(t, items[2].CanDownload)
	assert.Equal(t, 0, items[2].RemainingDownloads)
}

func TestDownloadSavesSlugZip(t *testing.T) {
	dir := t.TempDir()
	api := catalog()
	m := New(api, token("t"), storage.NewFileSink(dir))

	location, err := m.DownloadByID(context.Background(), "paid-bought")
	require.NoError(t, err)
	assert.Contains(t, location, "port-scanner.zip")
	assert.Equal(t, []string{"paid-bought"}, api.downloads)

	_, err = m.DownloadByID(context.Background(), "paid-pending")
	assert.True(t, errs.IsNotFound(err))
}

func TestDownloadRefusesWhenLimitReached(t *testing.T) {
	api := catalog()
	m := New(api, token("t"), storage.NewFileSink(t.TempDir()))

	_, err := m.Download(context.Background(), models.Project{ID: "exhausted", DownloadLimit: 2, DownloadCount: 2})
	assert.True(t, errs.IsForbidden(err))
	assert.Empty(t, api.downloads)
}

func TestDownloadRejectsConcurrentDownloadOfSameProject(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	api := catalog()
	api.downloadFn = func() (remote.Blob, error) {
		close(started)
		<-gate
		return remote.Blob{Data: []byte("PK")}, nil
	}
	m := New(api, token("t"), storage.NewFileSink(t.TempDir()))
	project := models.Project{ID: "free", Slug: "free-tool"}

	done := make(chan error, 1)
	go func() {
		_, err := m.Download(context.Background(), project)
		done <- err
	}()
	<-started

	_, err := m.Download(context.Background(), project)
	assert.True(t, errs.IsInFlight(err))

	items, err := m.Purchased(context.Background())
	require.NoError(t, err)
	for _, item := range items {
		if item.Project.ID == "free" {
			assert.True(t, item.Downloading)
			assert.False(t, item.CanDownload)
		}
	}

	close(gate)
	require.NoError(t, <-done)
}
