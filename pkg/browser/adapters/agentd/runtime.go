package agentd

import (
	"context"
	"fmt"

	"github.com/agentrank/engine/pkg/browser"
)

// Runtime implements browser.Runtime against an agentd daemon.
type Runtime struct {
	cfg    Config
	client *client
}

// NewRuntime creates an agentd-backed browser runtime.
func NewRuntime(cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runtime{cfg: cfg, client: newClient(cfg)}, nil
}

type createSessionRequest struct {
	SessionID      string `json:"session_id"`
	Headless       bool   `json:"headless"`
	Local          bool   `json:"local"`
	RecordVideoDir string `json:"record_video_dir,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// NewSession launches one browser session on the daemon.
func (r *Runtime) NewSession(ctx context.Context, cfg browser.SessionConfig) (browser.Session, error) {
	if r == nil || r.client == nil {
		return nil, browser.ErrUnavailable
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.controlTimeout())
	defer cancel()

	var resp createSessionResponse
	err := r.client.call(ctx, "POST", "/sessions", createSessionRequest{
		SessionID:      cfg.SessionID,
		Headless:       cfg.Headless,
		Local:          cfg.Local,
		RecordVideoDir: cfg.RecordVideoDir,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", browser.ErrLaunchFailed, err)
	}

	id := resp.SessionID
	if id == "" {
		id = cfg.SessionID
	}
	return &session{id: id, runtime: r}, nil
}

// Close releases the runtime. The daemon itself is a separate process
// and keeps running.
func (r *Runtime) Close() error {
	if r != nil && r.client != nil {
		r.client.http.CloseIdleConnections()
	}
	return nil
}
