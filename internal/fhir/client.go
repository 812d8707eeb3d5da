package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwalitptl/fhir-sync-api/internal/config"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
	"github.com/jwalitptl/fhir-sync-api/pkg/logger"
	"github.com/jwalitptl/fhir-sync-api/pkg/metrics"
)

// retryableStatus lists the server-side failures worth retrying. Client
// errors are never retried.
var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client issues read-only calls against a FHIR R5 server. It is stateless
// and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	maxRetries int
	backoff    time.Duration
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg config.FHIRConfig, log *logger.Logger, m *metrics.Metrics) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 10
	}
	if cfg.BreakerResetAfter <= 0 {
		cfg.BreakerResetAfter = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "fhir-server",
			MaxFailures: cfg.BreakerFailures,
			Timeout:     cfg.BreakerResetAfter,
		}),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     log,
		metrics:    m,
	}
}

// PatientsByPostalCode fetches the bundle of patients whose address matches
// the given postal code.
func (c *Client) PatientsByPostalCode(ctx context.Context, postalCode string) (*model.Bundle, error) {
	query := url.Values{"address-postalcode": {postalCode}}
	return c.get(ctx, "Patient", query)
}

// ObservationsByPatient fetches the bundle of observations owned by the
// given patient.
func (c *Client) ObservationsByPatient(ctx context.Context, patientID string) (*model.Bundle, error) {
	query := url.Values{"subject": {"Patient/" + patientID}}
	return c.get(ctx, "Observation", query)
}

func (c *Client) get(ctx context.Context, resource string, query url.Values) (*model.Bundle, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, query.Encode())

	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if c.metrics != nil {
				c.metrics.FHIRRetries.Inc()
			}
			select {
			case <-ctx.Done():
				return nil, apperrors.Timeout(ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		bundle, retryable, err := c.doOnce(ctx, resource, endpoint)
		if err == nil {
			return bundle, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn("retrying FHIR request",
			"resource", resource, "attempt", attempt+1, "error", err.Error())
	}

	return nil, lastErr
}

// doOnce performs a single GET and maps transport failures into the typed
// error taxonomy. The retryable flag is true only for 500/502/503/504.
func (c *Client) doOnce(ctx context.Context, resource, endpoint string) (*model.Bundle, bool, error) {
	start := time.Now()
	var bundle model.Bundle
	retryable := false

	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return apperrors.Connection(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) {
				return apperrors.Timeout(err)
			}
			return apperrors.Connection(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			retryable = retryableStatus[resp.StatusCode]
			return apperrors.Remote(resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
			return apperrors.MalformedResponse(err)
		}
		return nil
	})

	if c.metrics != nil {
		c.metrics.FHIRRequestLatency.WithLabelValues(resource).Observe(time.Since(start).Seconds())
		result := "success"
		if err != nil {
			result = "error"
		}
		c.metrics.FHIRRequests.WithLabelValues(resource, result).Inc()
	}

	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, false, apperrors.Connection(err)
	}
	if err != nil {
		return nil, retryable, err
	}
	return &bundle, false, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
