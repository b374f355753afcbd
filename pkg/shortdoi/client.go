// Package shortdoi resolves short-DOI aliases through the shortdoi.org
// service.
//
// The service has no structured API: a GET on the full DOI returns an HTML
// page and the alias is scraped from a fixed marker inside it.
package shortdoi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Alias markers inside the shortdoi.org response page. Every alias starts
// with the "10/" shortcut prefix.
const (
	aliasMarker    = `<div class="para">`
	aliasOpen      = aliasMarker + `10/`
	aliasClose     = `</div>`
	defaultBaseURL = "http://shortdoi.org"
)

// StatusError reports a non-200 response from the alias service, preserving
// both the status code and the body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("short DOI lookup failed: status %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the shortdoi client.
type Config struct {
	BaseURL string        // Base URL (default: http://shortdoi.org)
	Timeout time.Duration // HTTP timeout (default: 30s)
	Logger  hclog.Logger  // Logger (optional)
}

// Client resolves short-DOI aliases.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new shortdoi client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: cfg.Logger.Named("shortdoi-client"),
	}
}

// Resolve looks up the short alias for a fully registered DOI. A 200 response
// without the alias marker returns the empty string; callers treat that as
// "no alias available", not a failure. Any other status returns a
// *StatusError.
func (c *Client) Resolve(ctx context.Context, registeredDOI string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+registeredDOI, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	alias := extractAlias(string(respBody))
	if alias == "" {
		c.logger.Warn("no alias marker in shortdoi response",
			"doi", registeredDOI,
		)
		return "", nil
	}

	c.logger.Info("short DOI resolved",
		"doi", registeredDOI,
		"alias", alias,
	)
	return alias, nil
}

// extractAlias scans the response page for the alias between the fixed
// markers. Returns the empty string if the pattern is absent.
func extractAlias(body string) string {
	start := strings.Index(body, aliasOpen)
	if start < 0 {
		return ""
	}

	rest := body[start+len(aliasMarker):]
	end := strings.Index(rest, aliasClose)
	if end < 0 {
		return ""
	}

	return strings.TrimSpace(rest[:end])
}
