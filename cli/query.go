package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chweb/chweb/internal/gateway"
)

const userAgent = "chweb-cli"

// Query sends sql to the server and returns the envelope.
//
// A failed statement is not an error here: it is reported in the
// envelope's Error field, as the server does.
func (c *Context) Query(ctx context.Context, sql string) (gateway.Response, error) {
	body, err := json.Marshal(gateway.Request{SQL: sql})
	if err != nil {
		return gateway.Response{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return gateway.Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return gateway.Response{}, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return gateway.Response{}, fmt.Errorf("server returned %s", resp.Status)
	}

	var envelope gateway.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return gateway.Response{}, fmt.Errorf("bad response: %w", err)
	}

	return envelope, nil
}

// Ping asks the server whether it can reach ClickHouse.
func (c *Context) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

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
		var health struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&health); err == nil && health.Error != "" {
			return fmt.Errorf("server is unhealthy: %s", health.Error)
		}

		return fmt.Errorf("server is unhealthy: %s", resp.Status)
	}

	return nil
}
