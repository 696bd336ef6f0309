package agentd

import (
	"context"

	"github.com/agentrank/engine/pkg/agent"
	"github.com/agentrank/engine/pkg/browser"
)

// Runner implements agent.Runner against an agentd daemon.
type Runner struct {
	client *client
}

// NewRunner creates an agentd-backed task runner.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{client: newClient(cfg)}, nil
}

type runTaskRequest struct {
	Prompt string `json:"prompt"`
}

type runTaskResponse struct {
	Output       string   `json:"output"`
	Trace        []string `json:"trace"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
}

// Run executes one task prompt in the given session. The call is
// bounded only by ctx; token counts the daemon omits stay zero.
func (r *Runner) Run(ctx context.Context, prompt string, sess browser.Session) (*agent.RunResult, error) {
	if r == nil || r.client == nil {
		return nil, browser.ErrUnavailable
	}

	var resp runTaskResponse
	err := r.client.call(ctx, "POST", "/sessions/"+sess.ID()+"/tasks", runTaskRequest{Prompt: prompt}, &resp)
	if err != nil {
		return nil, err
	}

	return &agent.RunResult{
		Output:       resp.Output,
		Trace:        resp.Trace,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}
