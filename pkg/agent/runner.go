// Package agent defines the capability contract for running one
// natural-language task against a live browser session.
package agent

import (
	"context"

	"github.com/agentrank/engine/pkg/browser"
)

// RunResult is the explicit outcome of one agent run. Token counts
// default to zero when the underlying engine does not report them;
// that decision is made at the adapter boundary, not per call site.
type RunResult struct {
	Output       string
	Trace        []string
	InputTokens  int
	OutputTokens int
}

// Runner executes one task prompt inside an existing browser session.
// Implementations honor ctx for cancellation and deadlines; absent a
// deadline a run may take as long as the underlying engine needs.
type Runner interface {
	Run(ctx context.Context, prompt string, sess browser.Session) (*RunResult, error)
}
