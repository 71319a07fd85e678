package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/metrics"
)

const (
	DefaultTimeout  = 30 * time.Second
	maxResponseBody = 4 << 20
)

// Endpoints that take credentials instead of a session. A 401 there means bad
// credentials and must not end the current session.
var (
	authPathPrefixes   = []string{"/api/auth/", "/api/member/auth/"}
	credentialSegments = map[string]struct{}{
		"login":               {},
		"register":            {},
		"resend-verification": {},
		"callback":            {},
		"forgot-password":     {},
		"reset-password":      {},
		"verify-reset-token":  {},
	}
)

// SessionSource supplies the bearer token and is cleared when the backend
// rejects it.
type SessionSource interface {
	Token() string
	ClearSession(ctx context.Context) error
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient defaults to a client without its own timeout; per-call
	// deadlines come from the request context.
	HTTPClient *http.Client

	// OnAuthFailure runs after the session was cleared because of a 401/403.
	OnAuthFailure func()
}

type Client struct {
	baseURL       string
	timeout       time.Duration
	userAgent     string
	http          *http.Client
	session       SessionSource
	onAuthFailure func()
	logger        logrus.FieldLogger
}

type Request struct {
	Method string
	Path   string
	// Route is the low-cardinality path template used as a metrics label.
	Route   string
	Query   url.Values
	Body    interface{}
	Timeout time.Duration
}

func NewClient(cfg Config, session SessionSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "portal-payments"
	}

	return &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:       timeout,
		userAgent:     userAgent,
		http:          httpClient,
		session:       session,
		onAuthFailure: cfg.OnAuthFailure,
		logger:        factory.NewModuleLogger("transport"),
	}
}

func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	route := r.Route
	if route == "" {
		route = r.Path
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, c.buildURL(r.Path, r.Query), body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"route":      route,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(method, route, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		netErr := classifyTransportError(err)
		metrics.IncAPIError(netErr.Kind.String())
		logger.WithError(err).Debug("api_request_failed")
		return nil, netErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	elapsed := time.Since(start)
	metrics.ObserveAPIRequest(method, route, resp.StatusCode, elapsed)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		netErr := classifyTransportError(err)
		metrics.IncAPIError(netErr.Kind.String())
		return nil, netErr
	}

	logger = logger.WithField("status", resp.StatusCode).WithField("latency", elapsed.String())

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := c.statusError(ctx, r.Path, resp.StatusCode, raw)
		metrics.IncAPIError(apiErr.Kind.String())
		logger.WithField("kind", apiErr.Kind.String()).Debug("api_request_rejected")
		return nil, apiErr
	}

	out, err := parseEnvelope(resp.StatusCode, raw)
	if err != nil {
		metrics.IncAPIError(apierror.KindOf(err).String())
		logger.WithError(err).Debug("api_request_unsuccessful")
		return nil, err
	}
	out.RequestID = requestID
	logger.Debug("api_request")
	return out, nil
}

func (c *Client) statusError(ctx context.Context, path string, status int, raw []byte) *apierror.Error {
	message := extractMessage(raw)

	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return apierror.FromStatus(status, message)
	}

	if IsAuthEndpoint(path) {
		if message == "" {
			message = "Authentication failed"
		}
		return apierror.Auth(status, message)
	}

	if c.session != nil {
		if err := c.session.ClearSession(context.WithoutCancel(ctx)); err != nil {
			c.logger.WithError(err).Warn("Failed to clear session after auth failure")
		}
	}
	if c.onAuthFailure != nil {
		c.onAuthFailure()
	}
	return apierror.Auth(status, apierror.MsgAuthFailed)
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func IsAuthEndpoint(path string) bool {
	for _, prefix := range authPathPrefixes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		_, ok := credentialSegments[strings.Trim(strings.TrimPrefix(path, prefix), "/")]
		return ok
	}
	return false
}

func classifyTransportError(err error) *apierror.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apierror.Network(apierror.MsgRequestTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierror.Network(apierror.MsgRequestTimeout, err)
	}
	return apierror.Network(apierror.MsgNetworkFailed, err)
}
