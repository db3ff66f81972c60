package turf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"turfgame/exporter/pkg/telemetry/tracing"
)

const (
	// DefaultURL is the Turf v4 users endpoint.
	DefaultURL = "https://api.turfgame.com/v4/users"

	// DefaultTimeout bounds one request. Cycles run on a fixed schedule and
	// must not pile up behind a slow API.
	DefaultTimeout = 2 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20

	// maxErrorBodyBytes caps how much of a non-200 body is kept for logs.
	maxErrorBodyBytes = 512
)

// Config configures a Client.
type Config struct {
	// URL is the users endpoint. Default: DefaultURL
	URL string

	// Timeout bounds the whole request including reading the body.
	// Default: DefaultTimeout
	Timeout time.Duration

	// UserAgent identifies the exporter to the API operators.
	UserAgent string

	// HTTPClient overrides the HTTP client. Its Timeout is replaced by
	// Timeout.
	HTTPClient *http.Client

	// Logger receives debug output. Default: slog.Default()
	Logger *slog.Logger
}

// Client calls the Turf users API.
type Client struct {
	url       string
	userAgent string
	http      *http.Client
	tracer    trace.Tracer
	logger    *slog.Logger
}

// userQuery is one element of the request body.
type userQuery struct {
	Name string `json:"name"`
}

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	}
	httpClient.Timeout = cfg.Timeout

	return &Client{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		http:      httpClient,
		tracer:    otel.Tracer("turfgame-exporter/turf"),
		logger:    cfg.Logger.With("component", "turf.client"),
	}, nil
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// FetchUsers posts one batched query for names and returns the raw JSON
// element of every user object in the response. The API omits unknown
// users, so the result may be shorter than names.
//
// Errors are *TransportError, *StatusError or *DecodeError.
func (c *Client) FetchUsers(ctx context.Context, names []string) ([]json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "turf.fetch_users",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", c.url),
			attribute.Int("turf.users.requested", len(names)),
		),
	)
	defer span.End()

	records, err := c.fetch(ctx, names)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("turf.users.received", len(records)))
	span.SetStatus(codes.Ok, "")
	return records, nil
}

func (c *Client) fetch(ctx context.Context, names []string) ([]json.RawMessage, error) {
	query := make([]userQuery, 0, len(names))
	for _, name := range names {
		query = append(query, userQuery{Name: name})
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	tracing.Inject(ctx, req.Header)

	c.logger.DebugContext(ctx, "sending request to turf api",
		"url", c.url,
		"users", len(names),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &DecodeError{URL: c.url, Err: err}
	}
	// A "null" body decodes without error but is not an array.
	if records == nil {
		return nil, &DecodeError{URL: c.url, Err: errNullBody}
	}

	return records, nil
}
