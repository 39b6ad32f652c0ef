// Package clickhouse is a minimal client of the ClickHouse HTTP interface.
//
// It only runs statements and hands back the raw TabSeparatedWithNames
// stream; decoding is left to the caller.
package clickhouse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chweb/chweb/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client sends queries to ClickHouse. It is safe for concurrent use and
// meant to be shared by the whole process.
type Client struct {
	client   *http.Client
	cfg      config.ClickHouseConfig
	endpoint *url.URL
}

// NewClient creates a Client for the configured ClickHouse server.
func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
		},
	}, nil
}

// Query runs sql and returns the result as a TabSeparatedWithNames stream.
//
// The caller must close the stream. Closing it before the end aborts the
// transfer. Cancelling ctx aborts the query.
func (c *Client) Query(ctx context.Context, sql string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL(), strings.NewReader(withOutputFormat(sql)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if encoding := acceptEncoding(c.cfg.Compression); encoding != "" {
		req.Header.Set("Accept-Encoding", encoding)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() {
			if err := resp.Body.Close(); err != nil {
				slog.Error("failed to close response body", "error", err)
			}
		}()

		return nil, readError(resp)
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}

		return nil, fmt.Errorf("decode response: %w", err)
	}

	return body, nil
}

// Ping checks that the server answers on its /ping endpoint.
func (c *Client) Ping(ctx context.Context) error {
	pingURL := c.endpoint.JoinPath("ping")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pingURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	return nil
}

// IsHealthy reports whether Ping succeeds.
func (c *Client) IsHealthy(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

func (c *Client) queryURL() string {
	u := *c.endpoint

	if acceptEncoding(c.cfg.Compression) != "" {
		q := u.Query()
		q.Set("enable_http_compression", "1")
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func (c *Client) setHeaders(req *http.Request) {
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	if c.cfg.User != "" {
		req.Header.Set(headerUser, c.cfg.User)
		req.Header.Set(headerKey, c.cfg.Password)
	}
	if c.cfg.Database != "" {
		req.Header.Set(headerDatabase, c.cfg.Database)
	}
}

// withOutputFormat appends the FORMAT clause requesting
// TabSeparatedWithNames output. A trailing semicolon would make the
// clause a second statement, so it is dropped.
func withOutputFormat(sql string) string {
	sql = strings.TrimRight(strings.TrimSpace(sql), "; \t\r\n")

	return sql + "\nFORMAT " + OutputFormat
}

func readError(resp *http.Response) error {
	var reader io.Reader = resp.Body
	if decoded, err := decodeBody(resp.Header.Get("Content-Encoding"), io.NopCloser(resp.Body)); err == nil {
		defer decoded.Close()
		reader = decoded
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxErrorBodySize))
	if err != nil {
		return fmt.Errorf("read error response (HTTP %d): %w", resp.StatusCode, err)
	}

	return newError(resp.StatusCode, resp.Header.Get(headerExceptionCode), body)
}
