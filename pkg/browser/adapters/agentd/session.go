package agentd

import (
	"context"
	"sync"

	"github.com/agentrank/engine/pkg/browser"
)

type session struct {
	id      string
	runtime *Runtime

	mu     sync.Mutex
	closed bool
}

func (s *session) ID() string {
	return s.id
}

// Close shuts the daemon-side browser down. Closing twice is an error
// the orchestrator's best-effort teardown swallows.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return browser.ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.runtime.cfg.controlTimeout())
	defer cancel()
	return s.runtime.client.call(ctx, "DELETE", "/sessions/"+s.id, nil, nil)
}
