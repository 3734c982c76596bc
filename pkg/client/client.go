// Package client forwards tool invocations to the Theta Terminal HTTP API.
// It performs exactly one request per call: path parameters are expanded
// into the URL template, query parameters are serialized, and the response
// body is returned untouched. Retries, caching, and throttling are the
// terminal's job, not ours.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/yosida95/uritemplate/v3"
	"go.uber.org/zap"
)

// Client issues requests against a single base URL with a fixed timeout.
// It holds no mutable state, so concurrent invocations are independent.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

// Request describes one upstream call. Path holds the OpenAPI URL template
// (e.g. "/calendar/expirations/{symbol}"); PathParams fill its placeholders.
type Request struct {
	Method     string
	Path       string
	PathParams map[string]any
	Query      map[string]any
	Body       []byte
}

// Response carries the upstream reply verbatim.
type Response struct {
	StatusCode  int
	Status      string
	ContentType string
	Body        []byte
}

// New creates a Client. The timeout bounds each request end to end; an
// exceeded timeout surfaces as a KindTimeout error.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger.Named("client"),
	}
}

// BaseURL returns the configured upstream base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do issues the request and returns the upstream response unchanged.
// Non-2xx responses are returned as a Response, not an error; network and
// timeout failures come back as classified errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, Wrap(err, KindInternal, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		if IsTimeout(err) {
			return nil, Wrap(err, KindTimeout, fmt.Sprintf("request to %s exceeded %s", req.Path, c.httpc.Timeout))
		}
		return nil, Wrap(err, KindNetwork, fmt.Sprintf("request to %s failed", req.Path))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if IsTimeout(err) {
			return nil, Wrap(err, KindTimeout, fmt.Sprintf("reading response from %s exceeded %s", req.Path, c.httpc.Timeout))
		}
		return nil, Wrap(err, KindNetwork, fmt.Sprintf("reading response from %s failed", req.Path))
	}

	c.logger.Debug("upstream call",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}

// buildURL expands path parameters into the URL template and appends the
// serialized query string.
func (c *Client) buildURL(req Request) (string, error) {
	tmpl, err := uritemplate.New(req.Path)
	if err != nil {
		return "", Wrap(err, KindInternal, fmt.Sprintf("invalid path template %q", req.Path))
	}

	vars := uritemplate.Values{}
	for name, val := range req.PathParams {
		s, err := cast.ToStringE(val)
		if err != nil {
			return "", Wrap(err, KindValidation, fmt.Sprintf("path parameter %q is not a scalar", name))
		}
		vars[name] = uritemplate.String(s)
	}
	path, err := tmpl.Expand(vars)
	if err != nil {
		return "", Wrap(err, KindInternal, fmt.Sprintf("expand path template %q", req.Path))
	}

	query, err := encodeQuery(req.Query)
	if err != nil {
		return "", err
	}

	target := c.baseURL + path
	if query != "" {
		target += "?" + query
	}
	return target, nil
}

// encodeQuery serializes query parameters. Arrays collapse to comma-joined
// lists, matching the terminal's convention.
func encodeQuery(params map[string]any) (string, error) {
	values := url.Values{}
	for name, val := range params {
		switch v := val.(type) {
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				s, err := cast.ToStringE(item)
				if err != nil {
					return "", Wrap(err, KindValidation, fmt.Sprintf("query parameter %q has a non-scalar element", name))
				}
				parts = append(parts, s)
			}
			values.Set(name, strings.Join(parts, ","))
		default:
			s, err := cast.ToStringE(v)
			if err != nil {
				return "", Wrap(err, KindValidation, fmt.Sprintf("query parameter %q is not a scalar", name))
			}
			values.Set(name, s)
		}
	}
	return values.Encode(), nil
}
