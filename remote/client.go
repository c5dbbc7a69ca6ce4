package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Credentials supplies the bearer token for a call. An empty token sends the call unauthenticated.
type Credentials interface {
	Token() string
}

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 * 1024

// Client is the single way out to the portfolio API. It attaches the caller's bearer
// token and turns every failure into an *errs.RemoteError. It never retries.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxDownload int64
	logger      zerolog.Logger
	metrics     *Metrics
}

// DefaultMaxDownload caps binary responses such as invoices and project ZIPs.
const DefaultMaxDownload = 256 << 20

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every call. It applies to the client's own copy of the HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxDownload caps the size of binary responses; larger bodies fail the call.
func WithMaxDownload(limit int64) Option {
	return func(c *Client) {
		c.maxDownload = limit
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		timeout:     30 * time.Second,
		maxDownload: DefaultMaxDownload,
		logger:      log.With().Str("component", "remoteClient").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.maxDownload <= 0 {
		c.maxDownload = DefaultMaxDownload
	}

	httpClient := http.Client{}
	if c.httpClient != nil {
		httpClient = *c.httpClient
	}
	if c.timeout > 0 {
		httpClient.Timeout = c.timeout
	}
	c.httpClient = &httpClient
	return c
}

// call describes one upstream request. route is the templated path used as a metrics label.
type call struct {
	method string
	route  string
	path   string
}

func (c *Client) newRequest(ctx context.Context, creds Credentials, cl call, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, errs.NewNetworkError("failed to build request", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if creds != nil {
		if token := creds.Token(); token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	return req, nil
}

// do sends req and returns the response when it is 2xx. Callers must close the body.
func (c *Client) do(req *http.Request, cl call) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(cl, 0, time.Since(start))
		c.logger.Warn().Err(err).Str("method", cl.method).Str("route", cl.route).Msg("Upstream request failed")
		return nil, errs.NewNetworkError("request failed", err)
	}
	c.metrics.observe(cl, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		remoteErr := decodeError(resp)
		c.logger.Info().
			Str("method", cl.method).
			Str("route", cl.route).
			Int("status", resp.StatusCode).
			Str("kind", remoteErr.Kind.String()).
			Msg(remoteErr.Message)
		return nil, remoteErr
	}
	return resp, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func decodeError(resp *http.Response) *errs.RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return errs.NewServerError(resp.StatusCode, "", strings.TrimSpace(string(raw)))
	}

	message := body.Message
	if message == "" {
		message = body.Error
	}
	return errs.NewServerError(resp.StatusCode, body.Code, message)
}

// doJSON sends in as JSON (when non-nil) and decodes the answer into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, creds Credentials, cl call, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.NewNetworkError("failed to encode request", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, creds, cl, body, contentType)
	if err != nil {
		return err
	}

	resp, err := c.do(req, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return errs.NewNetworkError("failed to decode response", err)
	}
	return nil
}

// Blob is a binary document returned by the API.
type Blob struct {
	ContentType string
	Data        []byte
}

func (c *Client) doBlob(ctx context.Context, creds Credentials, cl call, in any) (Blob, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return Blob{}, errs.NewNetworkError("failed to encode request", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, creds, cl, body, contentType)
	if err != nil {
		return Blob{}, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.do(req, cl)
	if err != nil {
		return Blob{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownload+1))
	if err != nil {
		return Blob{}, errs.NewNetworkError("failed to read response", err)
	}
	if int64(len(data)) > c.maxDownload {
		return Blob{}, errs.NewNetworkError("response too large", fmt.Errorf("%s exceeds %d bytes", cl.route, c.maxDownload))
	}
	return Blob{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

// Asset is a file to upload.
type Asset struct {
	FileName string
	Content  io.Reader
}

// upload posts a multipart form with the given text fields and one file part.
func (c *Client) upload(ctx context.Context, creds Credentials, cl call, fields map[string]string, fileField string, asset Asset, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return errs.NewNetworkError("failed to build upload form", err)
		}
	}

	part, err := writer.CreateFormFile(fileField, asset.FileName)
	if err != nil {
		return errs.NewNetworkError("failed to build upload form", err)
	}
	if _, err := io.Copy(part, asset.Content); err != nil {
		return errs.NewNetworkError("failed to read upload content", err)
	}
	if err := writer.Close(); err != nil {
		return errs.NewNetworkError("failed to build upload form", err)
	}

	req, err := c.newRequest(ctx, creds, cl, &buf, writer.FormDataContentType())
	if err != nil {
		return err
	}

	resp, err := c.do(req, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return errs.NewNetworkError("failed to decode response", err)
	}
	return nil
}

// pathf fills format with path-escaped ids.
func pathf(format string, ids ...string) string {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, url.PathEscape(id))
	}
	return fmt.Sprintf(format, args...)
}
