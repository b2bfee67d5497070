// Package gateway talks to the notification REST backend. Reads never fail:
// when the backend is unreachable they are served from the last known-good
// snapshot. Mutations fail loudly so callers can revert.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/index"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/utils"
)

const (
	DefaultRequestTimeout = 4 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryInterval  = 200 * time.Millisecond

	// resourcePath is appended to the API base URL.
	resourcePath = "/notification"

	maxBackoff      = 2 * time.Second
	maxResponseSize = 4 << 20
)

// Options configures a Client. An empty BaseURL yields an offline client that
// serves the snapshot and accepts mutations locally.
type Options struct {
	BaseURL string
	Token   string
	UserID  string // resolves readBy into isRead

	RequestTimeout time.Duration // per attempt
	MaxRetries     int           // retries after the first attempt
	RetryInterval  time.Duration // first backoff, doubled per retry

	HTTPClient *http.Client

	// Seed is the initial snapshot, typically the synthetic catalog.
	Seed []domain.Announcement
	// Snapshots persists the snapshot after each successful refresh. Optional.
	Snapshots SnapshotStore
}

// Client is the persistence gateway.
type Client struct {
	baseURL       string
	token         string
	userID        string
	httpClient    *http.Client
	timeout       time.Duration
	maxRetries    int
	retryInterval time.Duration

	snapshot  *index.MemoryIndex
	snapshots SnapshotStore
	logger    logger.Logger
}

// NewClient creates a gateway client.
func NewClient(opts Options, log logger.Logger) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if log == nil {
		log = logger.Nop()
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if base != "" {
		base += resourcePath
	}

	c := &Client{
		baseURL:       base,
		token:         opts.Token,
		userID:        opts.UserID,
		httpClient:    opts.HTTPClient,
		timeout:       opts.RequestTimeout,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		snapshot:      index.NewMemoryIndex(),
		snapshots:     opts.Snapshots,
		logger:        log,
	}
	c.snapshot.Replace(opts.Seed)
	return c
}

// Offline reports whether the client has no backend configured.
func (c *Client) Offline() bool {
	return c.baseURL == ""
}

// ─────────────────────────────
// HTTP core
// ─────────────────────────────

type response struct {
	status int
	body   []byte
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// do sends the request, retrying network failures, 429 and 5xx. Any other
// status is returned as is. When retries are exhausted on a status, the last
// response is returned without error.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body interface{},
) (*response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var (
		last    *response
		lastErr error
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		resp, err := c.attempt(ctx, method, target, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			last, lastErr = nil, err
			c.logger.Debug("backend call failed",
				logger.String("method", method),
				logger.String("path", path),
				logger.Int("attempt", attempt+1),
				logger.Error(err))
			continue
		}

		if resp.status == http.StatusTooManyRequests || resp.status >= 500 {
			last, lastErr = resp, nil
			c.logger.Debug("backend returned retryable status",
				logger.String("method", method),
				logger.String("path", path),
				logger.Int("status", resp.status),
				logger.Int("attempt", attempt+1))
			continue
		}

		return resp, nil
	}

	if last != nil {
		return last, nil
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, target, err)
	}
	defer utils.Close(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// backoff doubles RetryInterval per retry, capped.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.retryInterval << uint(attempt-1)
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// decode unwraps the {success,data} envelope into out. An empty body counts
// as an acknowledgement.
func (r *response) decode(out interface{}) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(r.body, &env); err != nil {
		return fmt.Errorf("decoding envelope: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("backend reported failure: %s", env.reason())
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// failure builds a readable error for a non-2xx response.
func (r *response) failure() error {
	var env envelope
	if json.Unmarshal(r.body, &env) == nil {
		if reason := env.reason(); reason != "" {
			return errors.New(reason)
		}
	}
	text := strings.TrimSpace(string(r.body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = http.StatusText(r.status)
	}
	return errors.New(text)
}

func (e envelope) reason() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
