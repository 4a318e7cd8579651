// ABOUTME: HTTP client that fetches pages of posts from the remote API.
// ABOUTME: Classifies failures as invalid address, invalid response, or decoding errors.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/2389-research/postbox/internal/models"
)

// DefaultBaseURL is the public API the client talks to when none is configured.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// Failure kinds returned by FetchPage. Match them with errors.Is.
var (
	ErrInvalidAddress  = errors.New("invalid URL")
	ErrInvalidResponse = errors.New("invalid response from server")
	ErrDecodingError   = errors.New("failed to decode data")
	ErrTimeout         = errors.New("request timed out")
)

// Fetcher retrieves one page of posts.
type Fetcher interface {
	FetchPage(ctx context.Context, page, limit int) ([]models.Post, error)
}

// Client fetches pages of posts over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-request timeout. The client passed to
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.client
			hc.Timeout = d
			c.client = &hc
		}
	}
}

// WithRateLimit throttles requests to rps per second. Zero or less disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PageURL builds the address of a page: {base}/posts?_page={page}&_limit={limit}.
func (c *Client) PageURL(page, limit int) (string, error) {
	if page < 1 || limit < 1 {
		return "", fmt.Errorf("%w: page %d, limit %d", ErrInvalidAddress, page, limit)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute address", ErrInvalidAddress, c.baseURL)
	}
	u := base.JoinPath("posts")
	u.RawQuery = fmt.Sprintf("_page=%d&_limit=%d", page, limit)
	return u.String(), nil
}

// FetchPage fetches one page of posts. Each call is an independent round trip.
// Context cancellation is returned as the context's own error.
func (c *Client) FetchPage(ctx context.Context, page, limit int) ([]models.Post, error) {
	endpoint, err := c.PageURL(page, limit)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("remote API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "fetched page",
		"page", page,
		"limit", limit,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	posts, err := decodePosts(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecodingError, err)
	}
	return posts, nil
}

// decodePosts reads a body that must be exactly one JSON array of posts.
func decodePosts(r io.Reader) ([]models.Post, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected an array of posts, got %v", tok)
	}

	posts := []models.Post{}
	for dec.More() {
		var p models.Post
		if err := dec.Decode(&p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected %v after the array", tok)
		}
		return nil, err
	}
	return posts, nil
}

// isTimeout reports whether a transport error is a deadline the client hit
// on its own, such as http.Client.Timeout.
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}

// Describe returns the human-readable message shown to users for a fetch failure.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAddress):
		return "Invalid URL"
	case errors.Is(err, ErrInvalidResponse):
		return "Invalid response from server"
	case errors.Is(err, ErrDecodingError):
		return "Failed to decode data"
	case errors.Is(err, ErrTimeout):
		return "Request timed out"
	default:
		return err.Error()
	}
}

// IsCanceled reports whether err stems from an abandoned request rather than a
// real failure: the caller's context was canceled or its deadline passed.
// Client-side timeouts are reported as ErrTimeout and do not match.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
