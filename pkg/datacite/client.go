// Package datacite implements the client for the DataCite DOI registration
// REST API.
package datacite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marineinst/doimint/pkg/doi"
)

// eventHide registers the DOI in "draft with metadata" state: findable only
// by the registrant, never surfaced in DataCite search until promoted.
const eventHide = "hide"

// RegistrationError reports a non-201 response from the registration API.
// Status code and body are both preserved so callers can report them
// verbatim.
type RegistrationError struct {
	StatusCode int
	Body       string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("DOI registration failed: status %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the DataCite client.
type Config struct {
	BaseURL   string        // Base URL (default: https://api.datacite.org)
	AuthToken string        // Base64 user:password token for Basic auth (required)
	Timeout   time.Duration // HTTP timeout (default: 30s)
	Logger    hclog.Logger  // Logger (optional)
}

// Client talks to the DataCite registration API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new DataCite client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("DataCite auth token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.datacite.org"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: cfg.Logger.Named("datacite-client"),
	}, nil
}

type registrationRequest struct {
	Data registrationData `json:"data"`
}

type registrationData struct {
	Type       string                 `json:"type"`
	Attributes registrationAttributes `json:"attributes"`
}

type registrationAttributes struct {
	Event string `json:"event"`
	DOI   string `json:"doi"`
	XML   string `json:"xml"`
}

// Register submits a candidate DOI with its base64-encoded metadata document
// and returns the DOI string confirmed by DataCite. The candidate is
// registered hidden; no precondition is placed on the payload, an empty
// document is submitted as-is and rejected by the provider.
//
// Any status other than 201 returns a *RegistrationError carrying the status
// and response body.
func (c *Client) Register(ctx context.Context, d doi.DOI, encodedXML string) (string, error) {
	reqBody := registrationRequest{
		Data: registrationData{
			Type: "dois",
			Attributes: registrationAttributes{
				Event: eventHide,
				DOI:   d.String(),
				XML:   encodedXML,
			},
		},
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dois", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Authorization", "Basic "+c.authToken)

	c.logger.Debug("registering DOI",
		"doi", d.String(),
		"payload_bytes", len(encodedXML),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return "", &RegistrationError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var regResp struct {
		Data struct {
			Attributes struct {
				DOI string `json:"doi"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &regResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if regResp.Data.Attributes.DOI == "" {
		return "", fmt.Errorf("registration response carries no DOI")
	}

	c.logger.Info("DOI registered",
		"doi", regResp.Data.Attributes.DOI,
	)
	return regResp.Data.Attributes.DOI, nil
}
