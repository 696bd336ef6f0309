// Package browser defines the capability contract the engine expects
// from a browser runtime. Adapters live under adapters/.
package browser

import "context"

// Runtime manages browser sessions.
type Runtime interface {
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
	Close() error
}

// Session is one live browser instance. Page state (cookies, DOM,
// navigation) persists across agent tasks until Close.
type Session interface {
	ID() string
	Close() error
}
