package jobnimbus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/northpeak/mcp-jobnimbus/internal/logging"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryMax   = 3
	maxErrorBodyBytes = 512
)

// httpClient implements Client against the JobNimbus REST API.
type httpClient struct {
	baseURL string
	keys    map[string]string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

// NewClient creates a Client over the JobNimbus REST API. keys maps instance
// names to API keys; an empty baseURL selects the production API.
func NewClient(baseURL string, keys map[string]string, logger *slog.Logger) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	rc.HTTPClient.Timeout = defaultTimeout
	rc.Logger = nil

	return &httpClient{
		baseURL: baseURL,
		keys:    keys,
		http:    rc,
		logger:  logger,
	}
}

func (c *httpClient) Instances() []string {
	names := make([]string, 0, len(c.keys))
	for name := range c.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *httpClient) ListJobs(ctx context.Context, instance string, opts ListOptions) (*ListResult, error) {
	return c.list(ctx, instance, "/jobs", opts)
}

func (c *httpClient) GetJob(ctx context.Context, instance, jnid string) (map[string]any, error) {
	return c.getRecord(ctx, instance, "/jobs/"+url.PathEscape(jnid))
}

func (c *httpClient) CreateJob(ctx context.Context, instance string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding job payload: %w", err)
	}
	var created map[string]any
	if err := c.do(ctx, http.MethodPost, instance, "/jobs", body, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *httpClient) ListEstimates(ctx context.Context, instance string, opts ListOptions) (*ListResult, error) {
	return c.list(ctx, instance, "/estimates", opts)
}

func (c *httpClient) GetEstimate(ctx context.Context, instance, jnid string) (map[string]any, error) {
	return c.getRecord(ctx, instance, "/estimates/"+url.PathEscape(jnid))
}

func (c *httpClient) list(ctx context.Context, instance, path string, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}
	if opts.From > 0 {
		q.Set("from", strconv.Itoa(opts.From))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result ListResult
	if err := c.do(ctx, http.MethodGet, instance, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) getRecord(ctx context.Context, instance, path string) (map[string]any, error) {
	var record map[string]any
	if err := c.do(ctx, http.MethodGet, instance, path, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// do performs one authenticated request and decodes the JSON response into
// out. Retries on transient failures are handled by the underlying client.
func (c *httpClient) do(ctx context.Context, method, instance, path string, body []byte, out any) error {
	key, ok := c.keys[instance]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstance, instance)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors can echo the full request URL; strip credentials
		// before the message propagates.
		return fmt.Errorf("jobnimbus request failed: %s", logging.SanitizeCredentials(err.Error()))
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("jobnimbus request",
		slog.String("method", method),
		slog.String("path", path),
		logging.Instance(instance),
		logging.Status(strconv.Itoa(resp.StatusCode)),
		logging.Duration(time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding jobnimbus response: %w", err)
	}
	return nil
}
