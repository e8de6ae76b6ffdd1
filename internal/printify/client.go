package printify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Blueprint is a catalog entry from the upstream blueprints listing.
type Blueprint struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Images      []string `json:"images"`
}

// PrintProvider identifies a fulfilment partner for a blueprint.
type PrintProvider struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// VariantOptions carries the color and size attributes of a variant.
type VariantOptions struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// Variant is a purchasable combination of blueprint, provider, color, and size.
type Variant struct {
	ID      int            `json:"id"`
	Title   string         `json:"title"`
	Options VariantOptions `json:"options"`
}

// RemoteError reports a non-2xx response from the upstream API.
type RemoteError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("printify: upstream status %d: %s", e.Status, e.Body)
}

// IsRemoteError reports whether err wraps a RemoteError, returning it when so.
func IsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// Client talks to the Printify catalog API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithLogger sets the logger used for upstream diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a catalog API client for the given base URL and bearer token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Blueprints fetches the full catalog blueprint listing.
func (c *Client) Blueprints(ctx context.Context) ([]Blueprint, error) {
	endpoint, err := url.JoinPath(c.baseURL, "catalog", "blueprints.json")
	if err != nil {
		return nil, err
	}

	var blueprints []Blueprint
	if err := c.getJSON(ctx, endpoint, &blueprints); err != nil {
		return nil, err
	}
	return blueprints, nil
}

// PrintProviders fetches the fulfilment partners offering the blueprint.
func (c *Client) PrintProviders(ctx context.Context, blueprintID int) ([]PrintProvider, error) {
	endpoint, err := url.JoinPath(c.baseURL, "catalog", "blueprints", fmt.Sprint(blueprintID), "print_providers.json")
	if err != nil {
		return nil, err
	}

	var providers []PrintProvider
	if err := c.getJSON(ctx, endpoint, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// Variants fetches the variants a provider offers for the blueprint.
func (c *Client) Variants(ctx context.Context, blueprintID, providerID int) ([]Variant, error) {
	endpoint, err := url.JoinPath(c.baseURL, "catalog", "blueprints", fmt.Sprint(blueprintID),
		"print_providers", fmt.Sprint(providerID), "variants.json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID       int       `json:"id"`
		Title    string    `json:"title"`
		Variants []Variant `json:"variants"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Variants, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body := drainError(resp.Body)
		c.logger.Warn("printify: upstream request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return &RemoteError{Status: resp.StatusCode, Body: body}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("printify: decoding %s: %w", endpoint, err)
	}
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
