package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

// maxErrorBody bounds how much of an error response is kept for logging
const maxErrorBody = 512

// Client reads panels from the backend REST API
type Client struct {
	// base is the backend root; relative media URLs resolve against it
	base       *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithClientLogger sets the logger
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a backend client
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	const op = "source.NewClient"

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, werrors.NewError("INVALID_INPUT", fmt.Sprintf("invalid backend URL %q", baseURL), op, werrors.ErrInvalidInput)
	}

	c := &Client{
		base:       u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Play fetches the active actions of an action panel by id
func (c *Client) Play(ctx context.Context, panelID string) (*PlayResponse, error) {
	var resp PlayResponse
	if err := c.get(ctx, "source.Play", c.base.JoinPath("api", "panels", panelID, "play"), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Player fetches the active actions of an action panel by its fixed URL
func (c *Client) Player(ctx context.Context, fixedURL string) (*PlayResponse, error) {
	var resp PlayResponse
	if err := c.get(ctx, "source.Player", c.base.JoinPath("api", "player", fixedURL), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// View fetches a department price board
func (c *Client) View(ctx context.Context, departmentID, panelID string) (*PanelView, error) {
	var view PanelView
	u := c.base.JoinPath("api", "departments", departmentID, "panels", panelID, "view")
	if err := c.get(ctx, "source.View", u, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// get performs a GET and decodes a JSON body into target. Not found maps
// to NOT_FOUND; every other failure means the backend is unavailable.
func (c *Client) get(ctx context.Context, op string, u *url.URL, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return werrors.NewError("INVALID_INPUT", "error creating request", op, fmt.Errorf("%w: %v", werrors.ErrInvalidInput, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return werrors.NewError("UNAVAILABLE", "backend request failed", op, fmt.Errorf("%w: %v", werrors.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return werrors.NewError("NOT_FOUND", "backend resource not found", op, werrors.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("backend error response",
			"url", u.String(),
			"status", resp.StatusCode,
			"body", string(body),
		)
		return werrors.NewError(
			"UNAVAILABLE",
			fmt.Sprintf("backend returned HTTP %d", resp.StatusCode),
			op,
			werrors.ErrUnavailable,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return werrors.NewError("UNAVAILABLE", "error decoding backend response", op, fmt.Errorf("%w: %v", werrors.ErrUnavailable, err))
	}
	return nil
}
