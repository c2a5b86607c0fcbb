package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

const (
	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	refreshSessionPath = "/xrpc/com.atproto.server.refreshSession"
	resolveHandlePath  = "/xrpc/com.atproto.identity.resolveHandle"

	maxResponseBytes = 1 << 20
)

// Observer receives the latency of each identity service call.
type Observer interface {
	ObserveUpstream(method, outcome string, elapsed time.Duration)
}

// Account is a handle resolved by the identity service.
type Account struct {
	Handle string
	DID    string
}

// Client talks XRPC to the PDS that owns accounts and sessions. It holds no
// state besides its configuration and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// New builds a client for the identity service at baseURL. timeout bounds
// every call, independent of the caller's context.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("pdsoauth/internal/identity"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionResponse struct {
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ExchangePassword creates a session for the account identified by username.
func (c *Client) ExchangePassword(ctx context.Context, username, password string) (*models.SessionCredentials, error) {
	body, err := json.Marshal(map[string]string{"identifier": username, "password": password})
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: "createSession", Err: err}
	}
	return c.session(ctx, "createSession", createSessionPath, bytes.NewReader(body), "")
}

// ExchangeRefresh trades a refresh credential for a new session. The
// identity service invalidates the presented credential.
func (c *Client) ExchangeRefresh(ctx context.Context, refreshToken string) (*models.SessionCredentials, error) {
	return c.session(ctx, "refreshSession", refreshSessionPath, nil, refreshToken)
}

func (c *Client) session(ctx context.Context, op, path string, body io.Reader, bearer string) (creds *models.SessionCredentials, err error) {
	ctx, finish := c.start(ctx, op)
	defer func() { finish(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, statusError(op, resp.StatusCode, payload)
	}

	var session sessionResponse
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode session: %w", err)}
	}
	if session.AccessJWT == "" {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Status: resp.StatusCode, Err: errors.New("session without access credential")}
	}
	return &models.SessionCredentials{AccessToken: session.AccessJWT, RefreshToken: session.RefreshJWT}, nil
}

// GetAccount resolves a handle. Unknown handles return sentinel.ErrNotFound.
func (c *Client) GetAccount(ctx context.Context, handle string) (account *Account, err error) {
	const op = "resolveHandle"
	ctx, finish := c.start(ctx, op)
	defer func() {
		if errors.Is(err, sentinel.ErrNotFound) {
			finish(nil)
			return
		}
		finish(err)
	}()

	endpoint := c.baseURL + resolveHandlePath + "?" + url.Values{"handle": {handle}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Status: resp.StatusCode, Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("handle %q: %w", handle, sentinel.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Status: resp.StatusCode, Reason: xrpcReason(payload)}
	}

	var resolved struct {
		DID string `json:"did"`
	}
	if err := json.Unmarshal(payload, &resolved); err != nil || resolved.DID == "" {
		return nil, &Error{Kind: KindUpstreamUnavailable, Op: op, Status: resp.StatusCode, Err: errors.New("undecodable resolveHandle response")}
	}
	return &Account{Handle: handle, DID: resolved.DID}, nil
}

// start opens a span for op and returns a func that ends it and records
// the call's latency.
func (c *Client) start(ctx context.Context, op string) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := c.tracer.Start(ctx, "identity."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", op)))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			if kind, ok := KindOf(err); ok {
				outcome = kind.String()
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("identity.outcome", outcome))
		span.End()
		if c.observer != nil {
			c.observer.ObserveUpstream(op, outcome, time.Since(started))
		}
	}
}

// statusError classifies a failed XRPC status. Client errors reject the
// credential, except timeouts and rate limits, which say nothing about it.
func statusError(op string, status int, payload []byte) *Error {
	kind := KindUpstreamUnavailable
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
	case status >= 400 && status < 500:
		kind = KindCredentialRejected
	}
	return &Error{Kind: kind, Op: op, Status: status, Reason: xrpcReason(payload)}
}

func xrpcReason(payload []byte) string {
	var body xrpcError
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" && body.Error != "" {
		return body.Error + ": " + body.Message
	}
	return body.Error + body.Message
}
