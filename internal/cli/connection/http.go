package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/infra/buildinfo"
	"github.com/yndnr/booklend-go/internal/storage"
	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// TokenSource yields the current session token.
type TokenSource interface {
	Get(ctx context.Context, key storage.Key) (string, bool, error)
}

// AuthRejectedFunc is called when the service rejects the session.
type AuthRejectedFunc func(ctx context.Context, cause error)

// Observer records request outcomes. status is 0 for transport failures.
type Observer interface {
	ObserveRequest(method string, status int, d time.Duration)
}

// HTTPClient provides authenticated HTTP communication with the catalog
// service.
type HTTPClient struct {
	baseURL        string
	client         *http.Client
	tokens         TokenSource
	limiter        *rate.Limiter
	onAuthRejected AuthRejectedFunc
	observer       Observer
	logger         logger.Logger
	userAgent      string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithTLSConfig sets the TLS configuration for https endpoints.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *HTTPClient) {
		if cfg == nil {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = cfg
		c.client.Transport = transport
	}
}

// WithRateLimit paces outgoing requests. A zero or negative limit
// disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithAuthRejectedHandler registers the auth rejection callback.
func WithAuthRejectedHandler(fn AuthRejectedFunc) Option {
	return func(c *HTTPClient) {
		c.onAuthRejected = fn
	}
}

// WithObserver records request metrics.
func WithObserver(o Observer) Option {
	return func(c *HTTPClient) {
		c.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// NewHTTPClient creates a client for the catalog service at server.
// A scheme-less server gets http:// prepended.
func NewHTTPClient(server string, tokens TokenSource, opts ...Option) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL: baseURL,
		tokens:  tokens,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:    logger.Default(),
		userAgent: buildinfo.UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Response is a completed HTTP exchange.
type Response struct {
	Status    int
	Body      json.RawMessage
	RequestID string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Err converts a non-2xx response into a *StatusError.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	code, msg := errorMessage(r.Body)
	return &StatusError{Status: r.Status, Code: code, Message: msg, RequestID: r.RequestID}
}

// StatusError is a non-2xx response that was not an auth rejection.
type StatusError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("server returned %d [%s]: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, msg)
}

// Do sends an authenticated request. body, when non-nil, is sent as JSON.
//
// The returned error is domain.ErrAuthRejected, domain.ErrTransport or a
// request construction error. Every other outcome, including 4xx and
// 5xx statuses, is a *Response with a nil error.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	tok, ok, err := c.tokens.Get(ctx, storage.KeyToken)
	if err != nil || !ok || tok == "" {
		cause := err
		if cause == nil {
			cause = fmt.Errorf("no stored token")
		}
		rejected := domain.ErrAuthRejected.WithDetails("no stored session").WithCause(cause)
		c.rejectAuth(ctx, rejected)
		return nil, rejected
	}

	resp, err := c.send(ctx, method, path, body, tok)
	if err != nil {
		return nil, err
	}

	if isAuthRejection(resp) {
		_, msg := errorMessage(resp.Body)
		rejected := domain.ErrAuthRejected.WithDetails(fmt.Sprintf("%d %s", resp.Status, msg))
		c.rejectAuth(ctx, rejected)
		return nil, rejected
	}
	return resp, nil
}

// SignIn exchanges credentials for a session token at path. The request
// carries no bearer token.
func (c *HTTPClient) SignIn(ctx context.Context, path, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}
	resp, err := c.send(ctx, http.MethodPost, path, payload, "")
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", domain.ErrSignInFailed.WithDetails(resp.Err().Error())
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := Decode(resp, &out); err != nil || out.Token == "" {
		return "", domain.ErrSignInFailed.WithDetails("response carried no token")
	}
	return out.Token, nil
}

// send performs one HTTP exchange. An empty bearer sends no
// Authorization header.
func (c *HTTPClient) send(ctx context.Context, method, path string, body any, bearer string) (*Response, error) {
	requestID := ulid.Make().String()
	ctx = logger.WithLogger(logger.WithRequestID(ctx, requestID), c.logger)
	log := logger.L(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.ErrTransport.Wrap(err)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req, requestID, bearer, body != nil)

	start := time.Now()
	httpResp, err := c.client.Do(req)
	if err != nil {
		c.observe(method, 0, time.Since(start))
		log.Debug("catalog request failed", "method", method, "path", path, "error", err)
		return nil, domain.ErrTransport.Wrap(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	elapsed := time.Since(start)
	c.observe(method, httpResp.StatusCode, elapsed)
	if err != nil {
		return nil, domain.ErrTransport.Wrap(err)
	}

	log.Debug("catalog request", "method", method, "path", path,
		"status", httpResp.StatusCode, "duration", elapsed)

	return &Response{
		Status:    httpResp.StatusCode,
		Body:      data,
		RequestID: requestID,
	}, nil
}

// addHeaders adds authentication and common headers.
func (c *HTTPClient) addHeaders(req *http.Request, requestID, bearer string, hasBody bool) {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
}

func (c *HTTPClient) observe(method string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status, d)
	}
}

func (c *HTTPClient) rejectAuth(ctx context.Context, cause error) {
	if c.onAuthRejected != nil {
		c.onAuthRejected(ctx, cause)
	}
}

// isAuthRejection reports a 401, or a 403 whose message says the token
// is invalid or expired.
func isAuthRejection(resp *Response) bool {
	switch resp.Status {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		_, msg := errorMessage(resp.Body)
		msg = strings.ToLower(msg)
		return strings.Contains(msg, "token") &&
			(strings.Contains(msg, "invalid") || strings.Contains(msg, "expired"))
	default:
		return false
	}
}

// errorMessage extracts code and message from an error body. Plain text
// bodies are returned as the message.
func errorMessage(body []byte) (code, message string) {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message == "" {
			e.Message = e.Error
		}
		return e.Code, e.Message
	}
	return "", strings.TrimSpace(string(body))
}

// Decode parses a response body into target.
func Decode(resp *Response, target any) error {
	if len(resp.Body) == 0 {
		return fmt.Errorf("parse response: empty body")
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
