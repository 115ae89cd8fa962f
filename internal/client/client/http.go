package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/common"
	"github.com/dmitrijs2005/tamperscan/internal/logging"
	"github.com/google/uuid"
)

// Authenticator is the session side of the client: it hands out the current
// access token and renews it on demand.
type Authenticator interface {
	// AccessToken returns the stored access token, or "" when there is none.
	AccessToken(ctx context.Context) (string, error)
	// Refresh renews the access token. A non-nil error means the session is gone.
	Refresh(ctx context.Context) error
	// Logout ends the session. Called when the backend still rejects a
	// request after a successful refresh.
	Logout(ctx context.Context) error
}

// Request is a replayable HTTP request relative to the backend base URL.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	// Anonymous requests are sent without a bearer credential. Used by the
	// credential exchange endpoints (login, register, refresh).
	Anonymous bool
}

// Response is a fully read 2xx answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger

	mu   sync.RWMutex
	auth Authenticator
}

type Option func(*HTTPClient)

// WithTimeout bounds every single attempt. Zero keeps the transport default (no deadline).
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// New returns a client for the backend at baseURL (scheme and host, optionally a path prefix).
func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{baseURL: u, http: &http.Client{}, log: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Attach installs the session used for bearer credentials and refreshes.
func (c *HTTPClient) Attach(a Authenticator) {
	c.mu.Lock()
	c.auth = a
	c.mu.Unlock()
}

func (c *HTTPClient) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Do sends req and returns the 2xx response.
//
// When the backend answers 401 and retries > 0, the session is refreshed and
// the request is sent again with retries-1. If the refresh fails the original
// 401 is returned. A 401 on a request that was already retried after a
// refresh ends the session. Other statuses and network failures are returned
// as they are, without retrying.
func (c *HTTPClient) Do(ctx context.Context, req Request, retries int) (*Response, error) {
	return c.do(ctx, req, retries, false)
}

func (c *HTTPClient) do(ctx context.Context, req Request, retries int, refreshed bool) (*Response, error) {
	auth := c.authenticator()

	resp, err := c.send(ctx, auth, req)
	if err != nil {
		return nil, err
	}

	unauthorized := resp.StatusCode == http.StatusUnauthorized && auth != nil && !req.Anonymous

	if unauthorized && retries > 0 {
		c.log.Info(ctx, "request rejected, refreshing session", "method", req.Method, "path", req.Path)
		if rerr := auth.Refresh(ctx); rerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.log.Warn(ctx, "session refresh failed", "path", req.Path, "error", rerr)
			return nil, newHTTPError(resp.StatusCode, resp.Body)
		}
		return c.do(ctx, req, retries-1, true)
	}

	if unauthorized && refreshed {
		c.log.Warn(ctx, "request rejected after refresh, ending session", "method", req.Method, "path", req.Path)
		if lerr := auth.Logout(ctx); lerr != nil {
			c.log.Error(ctx, "failed to end session", "error", lerr)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// send performs a single attempt and reads the whole body.
func (c *HTTPClient) send(ctx context.Context, auth Authenticator, req Request) (*Response, error) {
	target, err := c.baseURL.Parse(strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", req.Path, err)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(common.RequestIDHeaderName, requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	if auth != nil && !req.Anonymous {
		token, err := auth.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		if token != "" {
			httpReq.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn(ctx, "request failed", "method", req.Method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	c.log.Debug(ctx, "request done", "method", req.Method, "path", req.Path,
		"status", httpResp.StatusCode, "request_id", requestID)

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}
