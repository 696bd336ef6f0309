package scan

import "fmt"

// Task is one caller-specified diagnostic instruction. Signal is the
// caller's label used to correlate the outcome.
type Task struct {
	Name   string `json:"name"`
	Signal string `json:"signal"`
	Prompt string `json:"prompt"`
}

// Request describes one scan: a target URL, an optional preparatory
// prompt, and an ordered list of diagnostic tasks executed in one
// shared browser session.
type Request struct {
	URL         string `json:"url"`
	Tasks       []Task `json:"tasks"`
	PrepPrompt  string `json:"prep_prompt,omitempty"`
	RecordVideo *bool  `json:"record_video,omitempty"`
}

// Record reports whether a video should be captured. Defaults to true.
func (r Request) Record() bool {
	return r.RecordVideo == nil || *r.RecordVideo
}

// Validate checks the request shape. An empty task list is allowed
// (degenerate session: URL check plus prep only).
func (r Request) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	for i, t := range r.Tasks {
		if t.Name == "" {
			return fmt.Errorf("tasks[%d]: name is required", i)
		}
		if t.Signal == "" {
			return fmt.Errorf("tasks[%d]: signal is required", i)
		}
		if t.Prompt == "" {
			return fmt.Errorf("tasks[%d]: prompt is required", i)
		}
	}
	return nil
}

// TaskResult is the outcome of one diagnostic task. Exactly one of
// Output/Error is populated, matching Success.
type TaskResult struct {
	Signal       string `json:"signal"`
	Success      bool   `json:"success"`
	Output       string `json:"output,omitempty"`
	Error        string `json:"error,omitempty"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
}
