// Package scan orchestrates one browser-agent session: URL check,
// prep, ordered diagnostic tasks, session teardown, and replay upload,
// streaming typed progress events throughout.
package scan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agentrank/engine/pkg/agent"
	"github.com/agentrank/engine/pkg/browser"
	"github.com/agentrank/engine/pkg/config"
	"github.com/agentrank/engine/pkg/logging"
	"github.com/agentrank/engine/pkg/recording"
	"github.com/agentrank/engine/pkg/stream"
)

// Orchestrator runs scans. Each Run owns exactly one browser session
// and one recording directory; concurrent Runs share nothing.
type Orchestrator struct {
	runner     agent.Runner
	runtime    browser.Runtime
	recordings *recording.Manager
	cfg        config.ScanConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates an Orchestrator.
func New(runner agent.Runner, runtime browser.Runtime, recordings *recording.Manager, cfg config.ScanConfig, logger *logging.Logger) *Orchestrator {
	if cfg.URLCheckTimeout <= 0 {
		cfg.URLCheckTimeout = config.DefaultURLCheckTimeout
	}
	if cfg.PrepTimeout <= 0 {
		cfg.PrepTimeout = config.DefaultPrepTimeout
	}
	if cfg.StepTruncateRunes <= 0 {
		cfg.StepTruncateRunes = config.DefaultStepTruncateRunes
	}
	return &Orchestrator{
		runner:     runner,
		runtime:    runtime,
		recordings: recordings,
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Run starts a scan and returns its ordered event stream. The stream
// is terminated by exactly one complete or error event; a caller
// disconnect cancels ctx and aborts the scan after a best-effort
// browser close.
func (o *Orchestrator) Run(ctx context.Context, req Request) <-chan stream.Event {
	em := stream.NewEmitter(64)
	go o.run(ctx, req, em)
	return em.Events()
}

// session is the per-run state. Owned by exactly one run goroutine.
type session struct {
	id        string
	targetURL string
	state     State
	stepCount int
	navigated bool
	results   []TaskResult
	totalIn   int
	totalOut  int

	ctx    context.Context
	em     *stream.Emitter
	logger *logging.Logger
}

func (s *session) emit(ev stream.Event) {
	s.em.Emit(s.ctx, ev)
}

func (s *session) emitStep(action, status, signal string) {
	n := s.stepCount
	s.stepCount++
	s.emit(stream.Step(n, action, status, signal))
}

func (s *session) setState(st State) {
	s.state = st
	s.logger.Debug("session state", "state", string(st))
}

// taskPrompt prefixes the first executed task with navigation; later
// tasks reuse the live page state.
func (s *session) taskPrompt(instruction string) string {
	if !s.navigated {
		s.navigated = true
		return fmt.Sprintf("Navigate to %s. %s", s.targetURL, instruction)
	}
	return instruction
}

func (o *Orchestrator) run(ctx context.Context, req Request, em *stream.Emitter) {
	defer em.Close()

	s := &session{
		id:    newScanID(),
		state: StateInitializing,
		ctx:   ctx,
		em:    em,
	}
	s.logger = o.logger.WithScan(s.id)

	metricScansActive.Inc()
	defer metricScansActive.Dec()
	started := time.Now()
	defer func() { metricScanDuration.Observe(time.Since(started).Seconds()) }()

	if err := req.Validate(); err != nil {
		metricScans.WithLabelValues(outcomeFatal).Inc()
		s.emit(stream.Error(err.Error(), s.id))
		return
	}

	// URL verification happens before any other event: a dead target
	// leaves the stream holding the single error event.
	s.setState(StateCheckingURL)
	resolved, redirected, err := o.verifyURL(ctx, req.URL)
	if err != nil {
		metricScans.WithLabelValues(outcomeUnreachable).Inc()
		s.logger.Warn("target URL unreachable", "url", req.URL, "error", err)
		s.emit(stream.Error(fmt.Sprintf("target URL unreachable: %v", err), s.id))
		return
	}
	s.targetURL = resolved

	s.emit(stream.Start(s.id, fmt.Sprintf("Starting scan of %s", resolved), len(req.Tasks)))
	if redirected {
		s.emitStep(fmt.Sprintf("target redirected to %s", resolved), stream.StepDone, "")
	}

	// Session launch.
	s.setState(StateLaunching)
	var recDir string
	if req.Record() {
		recDir, err = o.recordings.SessionDir(s.id)
		if err != nil {
			o.fatal(s, nil, err)
			return
		}
	}

	s.emitStep("launch browser", stream.StepRunning, "")
	sessCfg := browser.DefaultSessionConfig(s.id)
	sessCfg.RecordVideoDir = recDir
	sess, err := o.runtime.NewSession(ctx, sessCfg)
	if err != nil {
		o.fatal(s, nil, fmt.Errorf("launch browser: %w", err))
		return
	}
	s.emitStep("launch browser", stream.StepDone, "")

	// Prep: failure is non-fatal, diagnostics may still be meaningful
	// on a partially prepared page.
	if req.PrepPrompt != "" {
		s.setState(StateRunningPrep)
		prepCtx, cancel := context.WithTimeout(ctx, o.cfg.PrepTimeout)
		res, err := o.runner.Run(prepCtx, s.taskPrompt(req.PrepPrompt), sess)
		cancel()
		if err != nil {
			s.logger.Warn("prep task failed, continuing to diagnostics", "error", err)
			s.emit(stream.TaskFailed("prep", err.Error()))
		} else {
			o.emitTrace(s, res.Trace, "prep")
			s.emit(stream.TaskComplete("prep", res.Output, res.InputTokens, res.OutputTokens))
		}
	}

	// Diagnostics: strictly in order, one shared session, and one
	// task's failure never aborts the rest.
	s.setState(StateRunningTasks)
	total := len(req.Tasks)
	for i, task := range req.Tasks {
		if ctx.Err() != nil {
			o.fatal(s, sess, fmt.Errorf("scan cancelled: %w", ctx.Err()))
			return
		}

		s.emit(stream.Progress(i, total, task.Signal, task.Name))
		res, err := o.runner.Run(ctx, s.taskPrompt(task.Prompt), sess)
		if err != nil {
			metricTasks.WithLabelValues(outcomeFailure).Inc()
			s.logger.Warn("diagnostic task failed", "signal", task.Signal, "error", err)
			s.results = append(s.results, TaskResult{Signal: task.Signal, Error: err.Error()})
			s.emit(stream.TaskFailed(task.Signal, err.Error()))
			continue
		}

		metricTasks.WithLabelValues(outcomeSuccess).Inc()
		o.emitTrace(s, res.Trace, task.Signal)
		s.results = append(s.results, TaskResult{
			Signal:       task.Signal,
			Success:      true,
			Output:       res.Output,
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
		})
		s.totalIn += res.InputTokens
		s.totalOut += res.OutputTokens
		s.emit(stream.TaskComplete(task.Signal, res.Output, res.InputTokens, res.OutputTokens))
	}

	// Close the session; the recording is not finalized until the
	// browser has flushed it.
	s.setState(StateClosing)
	s.emitStep("close browser session", stream.StepRunning, "")
	if err := sess.Close(); err != nil {
		o.fatal(s, nil, fmt.Errorf("close browser session: %w", err))
		return
	}
	s.emitStep("close browser session", stream.StepDone, "")

	// Artifact finalization: a failed or skipped upload never fails
	// the scan.
	var videoURL string
	if req.Record() {
		s.setState(StateUploading)
		s.emitStep("upload recording", stream.StepRunning, "")
		videoURL, err = o.recordings.Finalize(ctx, recDir, s.id)
		if err != nil {
			s.logger.Warn("recording finalize failed", "error", err)
		}
		s.emitStep("upload recording", stream.StepDone, "")
	}

	s.setState(StateComplete)
	metricScans.WithLabelValues(outcomeComplete).Inc()
	results := s.results
	if results == nil {
		results = []TaskResult{}
	}
	s.emit(stream.Complete(results, videoURL, s.id, s.totalIn, s.totalOut))
}

// fatal aborts the run: best-effort browser close (secondary errors
// swallowed), then the terminal error event.
func (o *Orchestrator) fatal(s *session, sess browser.Session, err error) {
	metricScans.WithLabelValues(outcomeFatal).Inc()
	s.logger.Error("scan aborted", "error", err)
	if sess != nil {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Debug("best-effort session close failed", "error", cerr)
		}
	}
	s.setState(StateFailed)
	s.emit(stream.Error(err.Error(), s.id))
}

// emitTrace emits one step per trace entry, truncated for transport.
func (o *Orchestrator) emitTrace(s *session, trace []string, signal string) {
	for _, entry := range trace {
		s.emitStep(truncate(entry, o.cfg.StepTruncateRunes), stream.StepDone, signal)
	}
}

// verifyURL issues a redirect-following GET bounded by the check
// timeout and accepts only a 2xx final status. The resolved URL
// replaces the original for all task prompts.
func (o *Orchestrator) verifyURL(ctx context.Context, rawURL string) (resolved string, redirected bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.URLCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("status %d", resp.StatusCode)
	}

	final := resp.Request.URL.String()
	return final, final != rawURL, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// newScanID returns a short opaque identifier.
func newScanID() string {
	return uuid.NewString()[:8]
}
