package waze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/metrics"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/telemetry"
)

// retryStatuses are upstream answers worth another attempt.
var retryStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

const maxResponseBytes = 16 << 20

// TransportOptions configures a Transport.
type TransportOptions struct {
	BaseURL string
	Headers Headers
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BackoffFactor is the first retry delay; each later delay doubles.
	BackoffFactor time.Duration
	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration
	// RequestsPerSecond throttles outbound attempts; 0 disables throttling.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Transport sends requests to the live map, retrying transient failures.
// It holds no per-call state and is safe for concurrent use.
type Transport struct {
	baseURL    string
	headers    Headers
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	limiter    *rate.Limiter
	client     *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewTransport creates a Transport.
func NewTransport(opts TransportOptions) *Transport {
	t := &Transport{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		headers:    opts.Headers,
		maxRetries: max(opts.MaxRetries, 0),
		backoff:    max(opts.BackoffFactor, 0),
		timeout:    opts.RequestTimeout,
		client:     opts.HTTPClient,
		logger:     opts.Logger,
		tracer:     otel.Tracer(telemetry.TracerName),
	}
	if t.timeout <= 0 {
		t.timeout = 15 * time.Second
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if opts.RequestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return t
}

type callOptions struct {
	endpoint string
}

type callOptionsKey struct{}

func withCall(ctx context.Context, o callOptions) context.Context {
	return context.WithValue(ctx, callOptionsKey{}, o)
}

func callFrom(ctx context.Context, method string) callOptions {
	if o, ok := ctx.Value(callOptionsKey{}).(callOptions); ok {
		return o
	}
	return callOptions{endpoint: strings.ToLower(method)}
}

// statusError is an unsuccessful HTTP status for a single attempt.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("HTTP %d", e.code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

// Send issues method against path (relative to the base URL), merging params
// into the query string and encoding body as JSON when non-nil. headers are
// applied on top of the static set. The decoded JSON body is returned raw.
func (t *Transport) Send(ctx context.Context, method, path string, params url.Values, body any, headers http.Header) (json.RawMessage, error) {
	call := callFrom(ctx, method)

	target, err := t.resolve(path, params)
	if err != nil {
		return nil, &domain.ValidationError{Field: "path", Reason: err.Error()}
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", call.endpoint, err)
		}
	}

	ctx, span := t.tracer.Start(ctx, "waze "+call.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(telemetry.AttrEndpoint, call.endpoint),
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	start := time.Now()
	attempts := 0
	lastStatus := 0

	op := func() (json.RawMessage, error) {
		attempts++
		span.AddEvent("attempt", trace.WithAttributes(attribute.Int(telemetry.AttrAttempt, attempts)))

		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		raw, status, err := t.attempt(ctx, method, target, payload, headers)
		lastStatus = status
		metrics.ObserveUpstream(call.endpoint, status)

		var ve *domain.ValidationError
		switch {
		case err == nil:
			return raw, nil
		case errors.As(err, &ve):
			return nil, backoff.Permanent(err)
		case ctx.Err() != nil:
			return nil, backoff.Permanent(ctx.Err())
		case status == 0:
			// connection-level failure
			return nil, err
		case slices.Contains(retryStatuses, status):
			return nil, err
		default:
			return nil, backoff.Permanent(err)
		}
	}

	notify := func(err error, wait time.Duration) {
		metrics.UpstreamRetries.WithLabelValues(call.endpoint).Inc()
		t.logger.WarnContext(ctx, "upstream attempt failed, retrying",
			"endpoint", call.endpoint,
			"attempt", attempts,
			"wait", wait.String(),
			"error", err,
		)
	}

	raw, err := backoff.RetryNotifyWithData(op, t.policy(ctx), notify)
	metrics.UpstreamDuration.WithLabelValues(call.endpoint).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int(telemetry.AttrAttempts, attempts))
	if lastStatus != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", lastStatus))
	}

	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			err = &domain.TransportError{
				Method:     method,
				URL:        target,
				StatusCode: statusOf(err),
				Attempts:   attempts,
				Err:        err,
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.ErrorContext(ctx, "upstream request failed", "endpoint", call.endpoint, "error", err)
		return nil, err
	}

	return raw, nil
}

func (t *Transport) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(t.maxRetries)), ctx)
}

// attempt performs one round trip. status is 0 when no response arrived.
func (t *Transport) attempt(ctx context.Context, method, target string, payload []byte, headers http.Header) (json.RawMessage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, &domain.ValidationError{Field: "request", Reason: err.Error()}
	}
	t.headers.apply(req.Header)
	for k, vs := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &statusError{code: resp.StatusCode, body: snippet(data)}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("null"), resp.StatusCode, nil
	}
	if !json.Valid(data) {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", domain.ErrInvalidResponse, &domain.ValidationError{
			Field:  "body",
			Reason: fmt.Sprintf("response is not JSON: %s", snippet(data)),
		})
	}
	return json.RawMessage(data), resp.StatusCode, nil
}

func (t *Transport) resolve(path string, params url.Values) (string, error) {
	u, err := url.Parse(t.baseURL + path)
	if err != nil {
		return "", err
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
