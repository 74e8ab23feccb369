// Package ministry implements the HTTP client for the Ministry of Education
// integration API: the write endpoints the delivery worker posts events to,
// and the per-period read API the reconciler pulls remote records from.
package ministry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
)

// Entity types accepted by the integration pipeline. The ministry exposes
// one write endpoint per entity type.
const (
	EntityEnrollment  = "enrollment"
	EntityGrade       = "grade"
	EntityCertificate = "certificate"
)

// endpoints maps local entity types to the ministry's write-API paths.
var endpoints = map[string]string{
	EntityEnrollment:  "matriculas",
	EntityGrade:       "calificaciones",
	EntityCertificate: "certificados",
}

// EndpointFor returns the ministry write-API path for an entity type.
func EndpointFor(entityType string) (string, error) {
	path, ok := endpoints[entityType]
	if !ok {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown entity type %q", entityType))
	}
	return path, nil
}

// SubmitResult is the classified result of one delivery attempt.
type SubmitResult struct {
	Outcome    Outcome
	StatusCode int
	// ConfirmationID is the ministry's receipt identifier, set on success.
	ConfirmationID string
	// Detail is an operator-readable description of the failure, empty on success.
	Detail string
}

// Client talks to the ministry API. All requests carry the institution
// headers and bearer credential; the per-attempt timeout is owned by the
// underlying http.Client.
type Client struct {
	baseURL         string
	token           string
	institutionCode string
	httpClient      *http.Client
	logger          *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a ministry API client.
func NewClient(baseURL, token, institutionCode string, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         baseURL,
		token:           token,
		institutionCode: institutionCode,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// confirmationBody is the ministry's 2xx response body.
type confirmationBody struct {
	ConfirmationID string `json:"confirmacion_id"`
	Message        string `json:"mensaje"`
}

// Submit posts an event payload to the write endpoint for its entity type
// and classifies the result. A non-nil error is returned only for local
// programming mistakes (unknown entity type, unbuildable request); every
// remote or transport failure is expressed through the SubmitResult outcome
// so the caller's retry bookkeeping sees it.
func (c *Client) Submit(ctx context.Context, entityType string, payload []byte) (SubmitResult, error) {
	path, err := EndpointFor(entityType)
	if err != nil {
		return SubmitResult{}, err
	}

	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return SubmitResult{}, apperrors.Wrap(err, "build ministry endpoint url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return SubmitResult{}, apperrors.Wrap(err, "build ministry request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection errors are retryable.
		c.logger.WarnContext(ctx, "ministry request failed",
			"entity_type", entityType,
			"endpoint", path,
			"error", err,
		)
		return SubmitResult{
			Outcome: OutcomeTransient,
			Detail:  err.Error(),
		}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	result := SubmitResult{
		Outcome:    classifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	switch result.Outcome {
	case OutcomeSuccess:
		var conf confirmationBody
		if err := json.Unmarshal(body, &conf); err == nil {
			result.ConfirmationID = conf.ConfirmationID
		}
	default:
		result.Detail = fmt.Sprintf("ministry returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}
	return result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Codigo-Institucion", c.institutionCode)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
