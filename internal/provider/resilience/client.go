package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"

// ErrCircuitOpen is returned without calling the upstream while its breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StatusError is an upstream reply worth retrying: any 5xx, or 429.
type StatusError struct {
	StatusCode int
	// RetryAfter is the upstream's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Throttled reports whether the upstream asked us to slow down.
func (e *StatusError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// ClientConfig configures a Client for one upstream.
type ClientConfig struct {
	// Name is the provider name used by the breaker, spans and the Registry.
	Name string

	// Timeout bounds a single attempt. Default 10s.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Zero means
	// 3; use NoRetries for none.
	MaxRetries uint64

	// InitialInterval and MaxInterval shape the exponential backoff. A
	// Retry-After longer than MaxInterval ends the retries.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// UserAgent is set on requests that carry none. Nominatim rejects
	// anonymous clients.
	UserAgent string

	// CircuitBreaker overrides DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, receives outcomes and breaker transitions.
	Registry *Registry
}

// NoRetries disables retries when assigned to ClientConfig.MaxRetries.
const NoRetries = ^uint64(0)

// DefaultClientConfig returns the settings used for most providers.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig()
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cb,
	}
}

// Client is an HTTP client for one upstream with per-attempt timeouts,
// retries with backoff and a circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
	logger     zerolog.Logger
}

// NewClient builds a Client and registers it with cfg.Registry.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	switch cfg.MaxRetries {
	case 0:
		cfg.MaxRetries = 3
	case NoRetries:
		cfg.MaxRetries = 0
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	cb := DefaultCircuitBreakerConfig()
	if cfg.CircuitBreaker != nil {
		cb = *cfg.CircuitBreaker
	}

	logger := zerolog.Nop()
	var onChange func(string, gobreaker.State, gobreaker.State)
	if cfg.Registry != nil {
		logger = cfg.Registry.logger
		onChange = cfg.Registry.recordStateChange
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newCircuitBreaker(cfg.Name, cb, onChange), //nolint:bodyclose // type param, not response
		config:     cfg,
		logger:     logger.With().Str("provider", cfg.Name).Logger(),
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do sends req, retrying transport errors, 5xx and 429 replies.
//
// When retries run out on a retryable status the last response is returned
// with a nil error so callers can inspect it. ErrCircuitOpen is returned
// immediately while the breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext is Do with an explicit context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.do(ctx, req)
	c.record(resp, err)
	return resp, err
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var last *http.Response
	keep := func(r *http.Response) {
		if last != nil {
			discard(last)
		}
		last = r
	}

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			return c.send(ctx, req)
		})
		if resp != nil {
			keep(resp)
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}

		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			if se.RetryAfter > c.config.MaxInterval {
				return backoff.Permanent(err)
			}
			if werr := wait(ctx, se.RetryAfter); werr != nil {
				return backoff.Permanent(werr)
			}
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		c.logger.Debug().Err(err).Dur("backoff", next).Msg("retrying provider request")
	}

	err := backoff.RetryNotify(operation, policy, notify)
	if err == nil {
		return last, nil
	}

	var se *StatusError
	if last != nil && errors.As(err, &se) {
		return last, nil
	}
	if last != nil {
		discard(last)
	}
	return nil, err
}

// send makes one attempt under a client span.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, c.config.Name+" "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", c.config.Name),
			attribute.String("http.request.method", req.Method),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()

	out := req.Clone(ctx)
	if c.config.UserAgent != "" && out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", c.config.UserAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(out.Header))

	resp, err := c.httpClient.Do(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return resp, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return resp, nil
}

func (c *Client) record(resp *http.Response, err error) {
	if c.config.Registry == nil {
		return
	}
	switch {
	case err != nil:
		c.config.Registry.RecordFailure(c.config.Name, err)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		c.config.Registry.RecordFailure(c.config.Name, &StatusError{StatusCode: resp.StatusCode})
	default:
		c.config.Registry.RecordSuccess(c.config.Name)
	}
}

// CircuitBreakerState returns the current breaker state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the breaker's counts for the current interval.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// discard drains a little of the body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
