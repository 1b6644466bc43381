// File: internal/platform/backend/client.go
package backend

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

	"garment_portal_gateway/internal/config"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// StatusError is returned for non-2xx responses from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client talks JSON to the storefront backend. Requests carry a bearer
// token: the signed-in user's token when one is supplied, otherwise the
// gateway's own service token.
type Client struct {
	baseURL      *url.URL
	base         http.RoundTripper
	serviceToken string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewClient builds a backend client from config.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	return NewClientWithTransport(cfg, http.DefaultTransport, logger)
}

// NewClientWithTransport is NewClient with an explicit base transport.
func NewClientWithTransport(cfg *config.Config, base http.RoundTripper, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BackendBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_BASE_URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_BASE_URL %q: scheme and host required", cfg.BackendBaseURL)
	}
	return &Client{
		baseURL:      u,
		base:         base,
		serviceToken: cfg.BackendAPIToken,
		timeout:      cfg.BackendTimeout,
		logger:       logger.Named("backend"),
	}, nil
}

func (c *Client) httpClient(token string) *http.Client {
	if token == "" {
		token = c.serviceToken
	}
	transport := c.base
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		}
	}
	return &http.Client{Transport: transport, Timeout: c.timeout}
}

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, token, method, path string, query url.Values, in, out interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient(token).Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("Backend request", zap.String("method", method), zap.String("path", path), zap.Int("status", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
