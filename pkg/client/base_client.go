package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// A logical call never makes more than this many HTTP attempts.
const maxAttemptsCap = 2

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	name           string
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	clock          clock.Clock
	maxAttempts    int
	retryDelay     time.Duration
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
	Threshold      int
	BreakerTimeout time.Duration

	// Optional overrides, mostly for tests.
	HTTPClient HTTPClient
	Clock      clock.Clock
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	var httpClient HTTPClient = &http.Client{
		Timeout: config.Timeout,
	}
	if config.HTTPClient != nil {
		httpClient = config.HTTPClient
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.New()
	}

	threshold := config.Threshold
	if threshold <= 0 {
		threshold = 3
	}

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if attempts > maxAttemptsCap {
		attempts = maxAttemptsCap
	}

	delay := config.RetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(threshold) && failureRatio >= 0.6
		},
		IsSuccessful: isHealthyResponse,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		name:           name,
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		clock:          clk,
		maxAttempts:    attempts,
		retryDelay:     delay,
	}
}

// Get issues a GET against endpoint with the given query parameters. Failures are
// wrapped with models.ErrNetworkFailure after the attempt budget is spent.
func (c *BaseClient) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewConstant(c.retryDelay))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		data, err := c.doGet(ctx, target)
		if err == nil {
			body = data
			return nil
		}

		c.logger.Warn("HTTP request failed",
			zap.String("client", c.name),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if !isRetryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrNetworkFailure, c.name, err)
	}

	c.logger.Debug("Request successful",
		zap.String("client", c.name),
		zap.String("endpoint", endpoint),
		zap.Int("body_size", len(body)))

	return body, nil
}

func (c *BaseClient) doGet(ctx context.Context, target string) ([]byte, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Code: resp.StatusCode}
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Now returns the client's notion of the current time.
func (c *BaseClient) Now() time.Time {
	return c.clock.Now()
}

// isHealthyResponse keeps caller mistakes, such as an unknown city, from
// tripping the breaker. Only transport errors, 429 and 5xx count as failures.
func isHealthyResponse(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 400 && statusErr.Code < 500 && statusErr.Code != http.StatusTooManyRequests
	}
	return false
}

func isRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Don't retry on client errors (4xx) except 429 (rate limiting)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}
