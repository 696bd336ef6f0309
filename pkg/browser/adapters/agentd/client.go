package agentd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agentrank/engine/pkg/browser"
)

type client struct {
	base string
	http *http.Client
}

func newClient(cfg Config) *client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &client{
		base: strings.TrimRight(cfg.Endpoint, "/"),
		http: hc,
	}
}

type daemonError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// call issues one JSON request against the daemon and decodes the
// response into out (when non-nil).
func (c *client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &browser.RuntimeError{Code: "unavailable", Message: "agentd unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var derr daemonError
		_ = json.NewDecoder(resp.Body).Decode(&derr)
		code := derr.Code
		if code == "" {
			code = fmt.Sprintf("http_%d", resp.StatusCode)
		}
		msg := derr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &browser.RuntimeError{Code: code, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
