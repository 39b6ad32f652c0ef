// Package httputils provides utilities for HTTP requests.
package httputils

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// httputilsContextKey is the key for the client information in the context.
type httputilsContextKey string

const (
	// contextKeyClient is the key for the client information in the context.
	contextKeyClient httputilsContextKey = "httputils:client"
)

// Client describes who sent a request.
type Client struct {
	Machine string
	IP      string
}

// LogValue implements slog.LogValuer.
func (c Client) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("machine", c.Machine),
		slog.String("ip", c.IP),
	)
}

// ClientMiddleware puts the User-Agent header and the client IP into the context.
func ClientMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		newCtx := WithClient(c.Request.Context(), Client{
			Machine: c.GetHeader("User-Agent"),
			IP:      c.ClientIP(),
		})
		c.Request = c.Request.WithContext(newCtx)
		c.Next()
	}
}

// WithClient returns a context carrying the client information.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, contextKeyClient, client)
}

// GetClient returns the client information from the context.
func GetClient(ctx context.Context) Client {
	if client, ok := ctx.Value(contextKeyClient).(Client); ok {
		return client
	}

	return Client{Machine: "!not-standard-path!"}
}
