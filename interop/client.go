package interop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hazyhaar/sinapp/apperr"
)

// CaseCreator files a completed application and returns the new case id.
type CaseCreator interface {
	CreateCase(ctx context.Context, app Application) (string, error)
}

// Options configures an HTTP client.
type Options struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
	AllowPrivate     bool
	HTTPClient       *http.Client
}

// Client is the HTTP CaseCreator.
type Client struct {
	create  Handler
	breaker *Breaker
}

// NewClient builds the handler chain for POST {BaseURL}/person-cases.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	endpoint := strings.TrimSuffix(opts.BaseURL, "/") + "/person-cases"
	transport, err := HTTPTransport(opts.HTTPClient, endpoint, opts.APIKey, opts.AllowPrivate)
	if err != nil {
		return nil, err
	}

	breaker := NewBreaker(opts.BreakerThreshold, opts.BreakerCooldown)
	chain := Chain(
		Logging(logger.With("component", "interop"), "create_case"),
		Recovery(logger),
		breaker.Middleware(),
		Timeout(opts.Timeout),
	)
	return &Client{create: chain(transport), breaker: breaker}, nil
}

// Breaker exposes the circuit breaker, e.g. for health reporting.
func (c *Client) Breaker() *Breaker { return c.breaker }

type createCaseResponse struct {
	CaseID string `json:"caseId"`
}

// CreateCase posts app. Every failure is an *apperr.AppError with code
// XAPI_API_ERROR carrying the upstream status and body when there was one.
func (c *Client) CreateCase(ctx context.Context, app Application) (string, error) {
	payload, err := json.Marshal(app)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "encode application", err)
	}

	body, err := c.create(ctx, payload)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return "", apperr.Upstream(se.Status, se.Body, err)
		}
		return "", apperr.Upstream(0, "", err)
	}

	var resp createCaseResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.CaseID == "" {
		if err == nil {
			err = errors.New("empty caseId")
		}
		return "", apperr.Upstream(http.StatusOK, string(body), fmt.Errorf("interop: decode response: %w", err))
	}
	return resp.CaseID, nil
}
