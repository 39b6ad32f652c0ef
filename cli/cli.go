// Package cli provides the command line client of a chweb server.
package cli

import (
	"net/http"
	"strings"
	"time"
)

// Context is the context for the CLI.
type Context struct {
	client    *http.Client
	serverURL string
}

// NewContext creates a new Context talking to the server at serverURL.
func NewContext(serverURL string, timeout time.Duration) *Context {
	return &Context{
		client:    &http.Client{Timeout: timeout},
		serverURL: strings.TrimRight(serverURL, "/"),
	}
}
