// Package agentd adapts a browser-agent daemon, reached over HTTP, to
// the engine's browser.Runtime and agent.Runner capabilities.
package agentd

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config configures the agentd adapter.
type Config struct {
	// Endpoint is the daemon base URL, e.g. http://127.0.0.1:9222.
	Endpoint string

	// ControlTimeout bounds session create/close calls. Task runs are
	// bounded only by the caller's context.
	ControlTimeout time.Duration

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// Validate checks the adapter configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("agentd endpoint is required")
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("agentd endpoint must be an http(s) URL")
	}
	return nil
}

func (c Config) controlTimeout() time.Duration {
	if c.ControlTimeout > 0 {
		return c.ControlTimeout
	}
	return 30 * time.Second
}
