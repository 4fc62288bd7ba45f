package qontak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/remindhub/remindhub-api/internal/observability"
)

// Default API hosts.
const (
	DefaultMekariBaseURL = "https://api.mekari.com"
	DefaultQontakBaseURL = "https://service-chat.qontak.com"
)

const (
	maxBodyBytes    = 4 << 20
	maxExcerptBytes = 2 << 10
	defaultTimeout  = 10 * time.Second
)

// Config carries everything the client needs; nothing is read from the
// environment here.
type Config struct {
	ClientID      string
	ClientSecret  string
	MekariBaseURL string
	QontakBaseURL string
	Timeout       time.Duration
}

// ErrTransport marks failures that happened before any provider answer
// (DNS, connect, timeout).
var ErrTransport = errors.New("transport failure")

// APIError is a non-2xx answer from the provider. Body holds at most 2 KiB
// of the response for diagnostics.
type APIError struct {
	Op         string
	Host       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qontak %s: %s returned %d: %s", e.Op, e.Host, e.StatusCode, e.Body)
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Client talks to both provider hosts. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	signer  *Signer
	mekari  string
	legacy  string
	timeout time.Duration
}

// New builds a Client. A nil hc gets a dedicated http.Client bounded by
// cfg.Timeout.
func New(cfg Config, hc *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	mekari := strings.TrimRight(cfg.MekariBaseURL, "/")
	if mekari == "" {
		mekari = DefaultMekariBaseURL
	}
	legacy := strings.TrimRight(cfg.QontakBaseURL, "/")
	if legacy == "" {
		legacy = DefaultQontakBaseURL
	}
	return &Client{
		http:    hc,
		signer:  NewSigner(cfg.ClientID, cfg.ClientSecret),
		mekari:  mekari,
		legacy:  legacy,
		timeout: timeout,
	}
}

// Signer exposes the request signer, mainly so tests can pin its clock.
func (c *Client) Signer() *Signer { return c.signer }

// auth decorates an outgoing request; it may fail before anything is sent.
type auth func(req *http.Request, pathAndQuery string) error

func (c *Client) signed() auth {
	return func(req *http.Request, pathAndQuery string) error {
		h, err := c.signer.Sign(req.Method, pathAndQuery)
		if err != nil {
			return err
		}
		for k, v := range h {
			req.Header[k] = v
		}
		return nil
	}
}

func bearer(token string) auth {
	return func(req *http.Request, _ string) error {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return nil
	}
}

// do performs one request against base+pathAndQuery and returns the body of
// a 2xx response. Non-2xx answers become *APIError; signing failures are
// returned unwrapped so callers can match ErrSignerNotConfigured.
func (c *Client) do(ctx context.Context, op, base, method, pathAndQuery string, body any, authn auth) ([]byte, error) {
	host := hostOf(base)
	ctx, span := otel.Tracer("qontak").Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("server.address", host),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("qontak %s: encode body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+pathAndQuery, rdr)
	if err != nil {
		return nil, fmt.Errorf("qontak %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if err := authn(req, pathAndQuery); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.UpstreamLatency.WithLabelValues(op, host).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.UpstreamRequests.WithLabelValues(op, host, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("qontak %s: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	observability.UpstreamRequests.WithLabelValues(op, host, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("qontak %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return nil, &APIError{Op: op, Host: host, StatusCode: resp.StatusCode, Body: excerpt(data)}
	}
	return data, nil
}

func hostOf(base string) string {
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		return u.Host
	}
	return base
}

func excerpt(b []byte) string {
	if len(b) > maxExcerptBytes {
		b = b[:maxExcerptBytes]
	}
	return string(b)
}
