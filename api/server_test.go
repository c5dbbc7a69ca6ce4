package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/unified-personal-site-frontend/editor"
	"github.com/rpupo63/unified-personal-site-frontend/models"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/session"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream plays the portfolio API.
type fakeUpstream struct {
	mu             sync.Mutex
	role           string
	accountDeleted bool
	active         *models.Subscription
	payments       []models.Payment
	subscribed     []models.SubscribeRequest
	cancelled      []string
	posts          []models.BlogPost
	failUploads    bool
}

func (f *fakeUpstream) set(change func(f *fakeUpstream)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	change(f)
}

func (f *fakeUpstream) subscribeCalls() []models.SubscribeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SubscribeRequest(nil), f.subscribed...)
}

func (f *fakeUpstream) cancelCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

func (f *fakeUpstream) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeUpstream) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/user", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(models.User{ID: "u1", Name: "Ada", Role: f.role})
	})

	mux.HandleFunc("GET /api/account-payments", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.accountDeleted {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Account deleted","code":"ACCOUNT_DELETED"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.AccountPayments{ActiveSubscription: f.active, Payments: f.payments})
	})

	mux.HandleFunc("POST /api/account-payments", func(w http.ResponseWriter, r *http.Request) {
		var req models.SubscribeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subscribed = append(f.subscribed, req)
		f.active = &models.Subscription{ID: "sub-1", PlanType: req.PlanType, BillingCycle: req.BillingCycle, Amount: req.Amount}
		f.payments = append(f.payments, models.Payment{ID: "pay-1", Amount: req.Amount, Status: models.PaymentCompleted, InvoiceID: "INV-1", Date: time.Now()})
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("DELETE /api/account-payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = append(f.cancelled, r.PathValue("id")+"?"+r.URL.RawQuery)
		if r.URL.Query().Get("type") == "subscription" {
			f.active = nil
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/invoice/generate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	mux.HandleFunc("GET /api/admin/blog", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.posts)
	})

	mux.HandleFunc("POST /api/admin/blog", func(w http.ResponseWriter, r *http.Request) {
		var payload models.BlogPostPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.mu.Lock()
		defer f.mu.Unlock()
		post := models.BlogPost{ID: "post-1", Title: payload.Title, Slug: payload.Slug, Tags: payload.Tags}
		f.posts = append(f.posts, post)
		_ = json.NewEncoder(w).Encode(post)
	})

	mux.HandleFunc("POST /api/blog/image", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failUploads
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"Storage unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"url":"https://cdn.example/cover.png"}`))
	})

	mux.HandleFunc("GET /api/projectpayments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.ProjectPayment{
			{ID: "pp-1", ProjectID: "proj-paid", Amount: 1500, Status: "completed", Date: time.Now()},
		})
	})

	mux.HandleFunc("GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Project{
			{ID: "proj-paid", Title: "Port Scanner", Slug: "port-scanner", IsPaid: true, Price: 1500},
			{ID: "proj-locked", Title: "Locked", Slug: "locked", IsPaid: true, Price: 900},
			{ID: "proj-free", Title: "Dotfiles", Slug: "dotfiles", Status: "published"},
		})
	})

	mux.HandleFunc("GET /api/projects/download-zip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK"))
	})

	mux.HandleFunc("POST /api/2fa/verify", func(w http.ResponseWriter, r *http.Request) {
		var body models.TwoFactorCode
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(models.TwoFactorStatus{Enabled: body.Code == "123456"})
	})

	return mux
}

type testServer struct {
	deps     Dependencies
	router   http.Handler
	upstream *fakeUpstream
	journal  *editor.MemoryJournal
	assetDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	upstream := &fakeUpstream{role: "admin"}
	upstreamServer := httptest.NewServer(upstream.handler(t))
	t.Cleanup(upstreamServer.Close)

	registry := prometheus.NewRegistry()
	client := remote.NewClient(upstreamServer.URL, remote.WithMetrics(remote.NewMetrics(registry)))
	journal := editor.NewMemoryJournal()
	assetDir := t.TempDir()

	deps := Dependencies{
		Client:   client,
		Sessions: session.NewManager(session.NewMemoryStore(), time.Hour),
		Journal:  journal,
		Sink:     storage.NewFileSink(assetDir),
		Gatherer: registry,
	}
	router := newRouter(deps, withConfig(map[string]string{"RATE_LIMIT_RPS": "0"}))

	return &testServer{deps: deps, router: router, upstream: upstream, journal: journal, assetDir: assetDir}
}

func (s *testServer) do(t *testing.T, method, target, sessionID string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sessionID != "" {
		req.Header.Set(sessionHeaderName, sessionID)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/session", "", strings.NewReader(`{"token":"tok-1"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), sessionCookieName+"="+resp.SessionID)
	return resp.SessionID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestAccountRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/account/subscription", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", decodeError(t, rec).Redirect)

	rec = s.do(t, http.MethodGet, "/account/subscription", "unknown-session", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubscribeAndCancelFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodPost, "/account/subscription", id, strings.NewReader(`{"planType":"supporter","billingCycle":"yearly"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	subscribed := s.upstream.subscribeCalls()
	require.Len(t, subscribed, 1)
	assert.Equal(t, int64(7499), subscribed[0].Amount)

	var dashboard struct {
		Active *struct {
			ID     string `json:"id"`
			Amount string `json:"amount"`
		} `json:"active"`
		Payments []struct {
			ID               string `json:"id"`
			InvoiceAvailable bool   `json:"invoiceAvailable"`
		} `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	require.NotNil(t, dashboard.Active)
	assert.Equal(t, "74.99", dashboard.Active.Amount)
	require.Len(t, dashboard.Payments, 1)
	assert.True(t, dashboard.Payments[0].InvoiceAvailable)

	rec = s.do(t, http.MethodDelete, "/account/subscription", id, nil, "")
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Empty(t, s.upstream.cancelCalls())

	rec = s.do(t, http.MethodDelete, "/account/subscription?confirm=true", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"sub-1?type=subscription"}, s.upstream.cancelCalls())

	rec = s.do(t, http.MethodDelete, "/account/subscription?confirm=true", id, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No active subscription to cancel", decodeError(t, rec).Error)
	assert.Len(t, s.upstream.cancelCalls(), 1)
}

func TestSubscribeRejectsUnknownCycle(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodPost, "/account/subscription", id, strings.NewReader(`{"planType":"supporter","billingCycle":"weekly"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.upstream.subscribeCalls())
}

func TestInvoiceDownloadSavesFile(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodPost, "/account/subscription", id, strings.NewReader(`{"planType":"allAccess","billingCycle":"monthly"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/account/payments/pay-1/invoice", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved savedFileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, strings.HasSuffix(saved.Location, "invoice-INV-1.pdf"))
}

func TestAccountDeletedEndsSession(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)
	s.upstream.set(func(f *fakeUpstream) { f.accountDeleted = true })

	rec := s.do(t, http.MethodGet, "/account/subscription", id, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "/login", resp.Redirect)
	assert.Equal(t, "ACCOUNT_DELETED", resp.Code)

	rec = s.do(t, http.MethodGet, "/account/profile", id, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutOnOneInstanceEndsSessionOnAnother(t *testing.T) {
	s := newTestServer(t)
	other := &testServer{deps: s.deps, upstream: s.upstream, router: newRouter(s.deps, withConfig(map[string]string{"RATE_LIMIT_RPS": "0"}))}
	id := s.login(t)

	rec := other.do(t, http.MethodGet, "/account/profile", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/session", id, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = other.do(t, http.MethodGet, "/account/profile", id, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", decodeError(t, rec).Redirect)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodDelete, "/session", id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/account/profile", id, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func blogMultipart(t *testing.T, form models.BlogPostForm, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	raw, err := json.Marshal(form)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("form", string(raw)))

	part, err := writer.CreateFormFile("image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestAdminCreateWithFailedUploadKeepsPost(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)
	s.upstream.set(func(f *fakeUpstream) { f.failUploads = true })

	body, contentType := blogMultipart(t, models.BlogPostForm{
		Title:           "Hello, World! 2024",
		Excerpt:         "e",
		RichDescription: "<p>r</p>",
		Category:        "go",
		Tags:            "a, b , ,c",
	}, []byte("png"))

	rec := s.do(t, http.MethodPost, "/admin/blog", id, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result editor.Result[models.BlogPost]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "hello-world-2024", result.Entity.Slug)
	assert.Equal(t, []string{"a", "b", "c"}, result.Entity.Tags)
	require.Len(t, result.Pending, 1)

	rec = s.do(t, http.MethodGet, "/admin/blog", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []models.BlogPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "post-1", posts[0].ID)

	rec = s.do(t, http.MethodGet, "/admin/uploads/pending", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.PendingUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)

	s.upstream.set(func(f *fakeUpstream) { f.failUploads = false })
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, writer.Close())

	rec = s.do(t, http.MethodPost, "/admin/uploads/pending/"+pending[0].ID+"/resume", id, &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	remaining, err := s.journal.FindAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestAdminCreateValidationError(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodPost, "/admin/blog", id, strings.NewReader(`{"title":"Only a title"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"excerpt", "richDescription", "category"}, decodeError(t, rec).Fields)
	assert.Zero(t, s.upstream.postCount())
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	s.upstream.set(func(f *fakeUpstream) { f.role = "member" })
	id := s.login(t)

	rec := s.do(t, http.MethodGet, "/admin/blog", id, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodGet, "/account/profile", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"workspaces":1`)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfolio_upstream_requests_total{method="GET",route="/api/user",status="200"} 1`)
}

func TestPreflightFromUnknownOriginIsRejected(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/account/profile", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/account/profile", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMarketplacePurchasedAndDownload(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodGet, "/marketplace/purchased", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var items []struct {
		Project   models.Project `json:"project"`
		Purchased bool           `json:"purchased"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Project.ID)
	}
	assert.ElementsMatch(t, []string{"proj-paid", "proj-free"}, ids)

	rec = s.do(t, http.MethodPost, "/marketplace/projects/proj-paid/download", id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved savedFileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, strings.HasSuffix(saved.Location, "port-scanner.zip"))

	rec = s.do(t, http.MethodPost, "/marketplace/projects/proj-locked/download", id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTwoFactorActions(t *testing.T) {
	s := newTestServer(t)
	id := s.login(t)

	rec := s.do(t, http.MethodPost, "/account/2fa/verify", id, strings.NewReader(`{"code":"123456"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var status models.TwoFactorStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Enabled)

	rec = s.do(t, http.MethodPost, "/account/2fa/verify", id, strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/account/2fa/reset", id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
