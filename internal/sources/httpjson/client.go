// Package httpjson provides the HTTP client shared by source adapters and
// the generic "httpjson" adapter driven by a URL template.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// UserAgent is sent with every request.
const UserAgent = "synapse/1.0 (+https://github.com/synapse-labs/synapse)"

// Client performs single HTTP calls and translates status codes into the
// errors the guard classifies. It never retries and sets no timeout of its
// own; the caller's context bounds every call.
type Client struct {
	http     *http.Client
	sourceID string
}

// NewClient creates a client for one source. A nil httpClient uses
// http.DefaultClient.
func NewClient(httpClient *http.Client, sourceID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, sourceID: sourceID}
}

// HTTPClient returns the underlying http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// PostJSON marshals in, POSTs it and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body), header)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// Get performs a GET and returns the raw body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil, header)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(
	ctx context.Context,
	method, url string,
	body io.Reader,
	header http.Header,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.CheckStatus(resp, body); err != nil {
		return nil, err
	}
	return body, nil
}

// CheckStatus maps a non-2xx response to an error. body may be nil.
func (c *Client) CheckStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return StatusError(c.sourceID, resp.StatusCode, resp.Header, body)
}

// StatusError maps an HTTP status to the error the guard classifies:
// 401 and 403 wrap domain.ErrSourceAuth, 429 is a *domain.RateLimitError
// and everything else is an *APIError.
func StatusError(sourceID string, status int, header http.Header, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s answered %d", domain.ErrSourceAuth, sourceID, status)
	case http.StatusTooManyRequests:
		return &domain.RateLimitError{SourceID: sourceID, RetryAfter: RetryAfter(header)}
	default:
		return &APIError{StatusCode: status, Message: snippet(body)}
	}
}

// APIError is a non-2xx response that is neither auth nor rate limiting.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// RetryAfter parses a Retry-After header in seconds or HTTP-date form.
// It returns zero when the header is absent or unparseable.
func RetryAfter(header http.Header) time.Duration {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
