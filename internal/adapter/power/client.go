package power

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
	"github.com/couchcryptid/climo-likelihood/internal/observability"
)

// ProviderName identifies the NASA POWER provider in metadata and metrics.
const ProviderName = "nasa-power"

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errClientStatus = errors.New("request rejected")
	errCircuitOpen  = errors.New("circuit breaker open")
	errAbandoned    = errors.New("request abandoned by caller")
)

// Config controls the POWER client and its resilience settings.
type Config struct {
	BaseURL   string
	Community string
	Start     string // YYYYMMDD
	End       string // YYYYMMDD
	Timeout   time.Duration

	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client fetches daily point archives from the NASA POWER API.
// Transport errors, 429 and 5xx are retried with exponential backoff behind
// a circuit breaker; other 4xx responses fail immediately.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a POWER client.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        ProviderName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejected or abandoned requests say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClientStatus) || errors.Is(err, errAbandoned)
		},
		OnStateChange: c.onStateChange,
	})
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// CheckReadiness reports not ready while the circuit breaker is open.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: %w", ProviderName, errCircuitOpen)
	}
	return nil
}

// URL returns the daily point request URL for a coordinate.
func (c *Client) URL(lat, lon float64) string {
	params := make([]string, len(domain.Variables))
	for i, v := range domain.Variables {
		params[i] = string(v)
	}
	q := url.Values{}
	q.Set("parameters", strings.Join(params, ","))
	q.Set("start", c.cfg.Start)
	q.Set("end", c.cfg.End)
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("community", c.cfg.Community)
	q.Set("format", "JSON")
	return c.cfg.BaseURL + "?" + q.Encode()
}

// FetchSeries downloads and decodes the full archive for a point. Every
// error wraps domain.ErrProvider.
func (c *Client) FetchSeries(ctx context.Context, lat, lon float64) (domain.TimeSeries, error) {
	start := time.Now()
	defer func() {
		c.metrics.ProviderFetchDuration.WithLabelValues(ProviderName).Observe(time.Since(start).Seconds())
	}()

	body, err := c.fetchWithResilience(ctx, c.URL(lat, lon))
	if err != nil {
		c.metrics.ProviderErrors.WithLabelValues(ProviderName, errorReason(err)).Inc()
		return domain.TimeSeries{}, fmt.Errorf("%w: %s: %w", domain.ErrProvider, ProviderName, err)
	}

	series, err := Decode(body, lat, lon)
	if err != nil {
		c.metrics.ProviderErrors.WithLabelValues(ProviderName, "decode").Inc()
		return domain.TimeSeries{}, fmt.Errorf("%w: %s: %w", domain.ErrProvider, ProviderName, err)
	}

	c.logger.Debug("time series fetched",
		"provider", ProviderName,
		"lat", lat,
		"lon", lon,
		"days", len(series.Records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return series, nil
}

func (c *Client) fetchWithResilience(ctx context.Context, u string) ([]byte, error) {
	backoff := c.cfg.InitialBackoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			body, err := c.do(ctx, u)
			if err != nil && ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errAbandoned, err)
			}
			return body, err
		})
		if err == nil {
			return result.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if errors.Is(err, errClientStatus) || ctx.Err() != nil || attempt >= c.cfg.MaxRetries {
			return nil, err
		}

		c.metrics.ProviderRetries.Inc()
		c.logger.Warn("POWER request failed, retrying",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, c.cfg.MaxBackoff)
	}
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", errRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", errServerError, resp.StatusCode, describeError(body))
	default:
		return nil, fmt.Errorf("%w: status %d: %s", errClientStatus, resp.StatusCode, describeError(body))
	}
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
	if to == gobreaker.StateOpen {
		c.metrics.ProviderCircuitOpen.Set(1)
	} else {
		c.metrics.ProviderCircuitOpen.Set(0)
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, errCircuitOpen):
		return "circuit_open"
	case errors.Is(err, errAbandoned), errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errRateLimited), errors.Is(err, errServerError), errors.Is(err, errClientStatus):
		return "status"
	default:
		return "transport"
	}
}
