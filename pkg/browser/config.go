package browser

import "fmt"

// SessionConfig configures a browser session.
//
// The runtime's option surface has hidden coupling between fields (a
// per-session timeout can flip some engines into remote mode), so the
// config is validated as a whole here instead of assuming fields are
// independent. The engine always runs local headless sessions.
type SessionConfig struct {
	SessionID      string `json:"session_id"`
	Headless       bool   `json:"headless"`
	Local          bool   `json:"local"`
	RecordVideoDir string `json:"record_video_dir,omitempty"`
}

// DefaultSessionConfig returns the engine's session defaults: local,
// headless, no recording.
func DefaultSessionConfig(sessionID string) SessionConfig {
	return SessionConfig{
		SessionID: sessionID,
		Headless:  true,
		Local:     true,
	}
}

// Validate rejects configurations the runtime would misinterpret.
func (c SessionConfig) Validate() error {
	if c.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if !c.Local {
		return fmt.Errorf("remote sessions are not supported")
	}
	return nil
}
