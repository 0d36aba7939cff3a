package twitterq

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// Executor performs the network call described by a request descriptor.
// Implementations must be safe for concurrent use: independent queries may
// run in parallel and must not observe each other's state.
type Executor interface {
	// Execute runs one GET and returns the raw response body. Failures are
	// a *TransportError or *APIError; ctx cancels the request.
	Execute(ctx context.Context, rd *RequestDescriptor) ([]byte, error)

	// Stream runs one long-lived GET, invoking onMessage once per inbound
	// message line in arrival order. Keep-alive blank lines are dropped
	// before the callback. Cancelling ctx resolves the stream: Stream
	// returns nil, not the context error. An error from onMessage aborts
	// the stream and is returned as is.
	Stream(ctx context.Context, rd *RequestDescriptor, onMessage func([]byte) error) error
}

const maxStreamLine = 1 << 20

// streamStableAfter is how long a stream must stay up before a drop resets
// the reconnect backoff.
const streamStableAfter = 30 * time.Second

// HTTPExecutor is the default Executor: app-only bearer or a caller-supplied
// signing client, local per-endpoint rate limiting, and an optional circuit
// breaker. It never retries a plain request; streams reconnect only when
// configured to.
type HTTPExecutor struct {
	client       *http.Client
	streamClient *http.Client
	bearerToken  string
	userAgent    string
	limiter      *ratelimit.Limiter
	breaker      *gobreaker.CircuitBreaker
	metrics      func(endpoint string, success, rateLimited bool)

	reconnect      bool
	backoffInitial time.Duration
	backoffMax     time.Duration
}

var _ Executor = (*HTTPExecutor)(nil)

// NewHTTPExecutor builds the default executor from a client config.
func NewHTTPExecutor(cfg ClientConfig) *HTTPExecutor {
	cfg.defaults()

	// A client timeout would sever long-lived streams, so streaming uses a
	// copy without one. Per-connect deadlines still apply via context.
	streamClient := *cfg.HTTPClient
	streamClient.Timeout = 0

	x := &HTTPExecutor{
		client:         cfg.HTTPClient,
		streamClient:   &streamClient,
		bearerToken:    cfg.BearerToken,
		userAgent:      cfg.UserAgent,
		limiter:        ratelimit.NewLimiter(cfg.RateLimit),
		metrics:        cfg.MetricsHook,
		reconnect:      cfg.StreamReconnect,
		backoffInitial: cfg.StreamBackoffInitial,
		backoffMax:     cfg.StreamBackoffMax,
	}
	if cfg.CircuitBreaker {
		x.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "twitter-api",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				// Only upstream faults open the breaker.
				var apiErr *APIError
				return errors.As(err, &apiErr) && apiErr.StatusCode < 500
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state change",
					slog.String("name", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		})
	}
	return x
}

// Execute implements Executor.
func (x *HTTPExecutor) Execute(ctx context.Context, rd *RequestDescriptor) ([]byte, error) {
	endpoint := rd.Endpoint
	if !x.limiter.Allow(endpoint) {
		x.record(endpoint, false, true)
		availableAt := x.limiter.AvailableAt(endpoint)
		return nil, &TransportError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("%w until %s", ErrThrottled, availableAt.Format(time.RFC3339)),
		}
	}
	if x.breaker == nil {
		return x.execute(ctx, rd)
	}
	body, err := x.breaker.Execute(func() (any, error) {
		return x.execute(ctx, rd)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			x.record(endpoint, false, false)
			return nil, &TransportError{Endpoint: endpoint, Err: err}
		}
		return nil, err
	}
	return body.([]byte), nil
}

func (x *HTTPExecutor) execute(ctx context.Context, rd *RequestDescriptor) ([]byte, error) {
	endpoint := rd.Endpoint
	req, err := x.newRequest(ctx, rd)
	if err != nil {
		x.record(endpoint, false, false)
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	start := time.Now()
	resp, err := x.client.Do(req)
	if err != nil {
		x.record(endpoint, false, false)
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		x.record(endpoint, false, false)
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	limit := parseRateLimitHeaders(resp.Header)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		x.record(endpoint, false, true)
		if !limit.Reset.IsZero() {
			x.limiter.MarkRateLimited(endpoint, limit.Reset)
		}
		slog.Warn("rate limited", slog.String("endpoint", endpoint), slog.Time("reset", limit.Reset))
		return nil, newAPIError(resp.StatusCode, body, limit)

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		x.record(endpoint, false, false)
		slog.Warn("non-2xx response",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(body, 500)))
		return nil, newAPIError(resp.StatusCode, body, limit)
	}

	x.record(endpoint, true, false)
	slog.Debug("request done",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("bytes", len(body)))
	return body, nil
}

// Stream implements Executor.
func (x *HTTPExecutor) Stream(ctx context.Context, rd *RequestDescriptor, onMessage func([]byte) error) error {
	if !x.reconnect {
		return x.streamOnce(ctx, rd, onMessage)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = x.backoffInitial
	bo.MaxInterval = x.backoffMax
	bo.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		start := time.Now()
		err := x.streamOnce(ctx, rd, onMessage)
		if err == nil {
			return nil
		}
		if !streamRetryable(err) {
			return backoff.Permanent(err)
		}
		if time.Since(start) > streamStableAfter {
			bo.Reset()
		}
		slog.Warn("stream dropped, reconnecting", slog.String("endpoint", rd.Endpoint), slog.Any("error", err))
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (x *HTTPExecutor) streamOnce(ctx context.Context, rd *RequestDescriptor, onMessage func([]byte) error) error {
	endpoint := rd.Endpoint
	req, err := x.newRequest(ctx, rd)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}

	resp, err := x.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		x.record(endpoint, false, false)
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		limit := parseRateLimitHeaders(resp.Header)
		x.record(endpoint, false, resp.StatusCode == http.StatusTooManyRequests)
		return newAPIError(resp.StatusCode, body, limit)
	}
	x.record(endpoint, true, false)
	slog.Debug("stream connected", slog.String("endpoint", endpoint))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			// keep-alive
			continue
		}
		msg := make([]byte, len(line))
		copy(msg, line)
		if err := onMessage(msg); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	return &TransportError{Endpoint: endpoint, Err: io.ErrUnexpectedEOF}
}

// streamRetryable reports whether a dropped stream is worth re-dialing.
// Callback and parse errors are final; so are auth and validation
// rejections.
func streamRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

func (x *HTTPExecutor) newRequest(ctx context.Context, rd *RequestDescriptor) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rd.URL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", x.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if x.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+x.bearerToken)
	}
	return req, nil
}

func (x *HTTPExecutor) record(endpoint string, success, rateLimited bool) {
	if x.metrics != nil {
		x.metrics(endpoint, success, rateLimited)
	}
}
