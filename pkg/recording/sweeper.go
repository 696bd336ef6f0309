package recording

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentrank/engine/pkg/logging"
)

// Sweeper removes recording directories older than the retention
// window. It runs for the lifetime of the process, independent of any
// scan, and talks to the orchestrator only through the filesystem.
type Sweeper struct {
	root     string
	window   time.Duration
	interval time.Duration
	logger   *logging.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewSweeper creates a sweeper over root.
func NewSweeper(root string, window, interval time.Duration, logger *logging.Logger) *Sweeper {
	return &Sweeper{
		root:     root,
		window:   window,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Run blocks, sweeping on a fixed interval until ctx is cancelled or
// Stop is called. A failed sweep is logged and never stops the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweepOnce(time.Now())
		}
	}
}

// Stop terminates the loop. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// sweepOnce removes every session directory whose last modification is
// older than the retention window. Per-entry failures are logged and
// skipped; a directory vanishing mid-sweep is not an error.
func (s *Sweeper) sweepOnce(now time.Time) {
	metricSweeps.Inc()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("retention sweep failed to list recordings root",
				"root", s.root, "error", err)
		}
		return
	}

	cutoff := now.Add(-s.window)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("retention sweep failed to stat entry",
					"entry", entry.Name(), "error", err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		dir := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("retention sweep failed to remove directory",
				"dir", dir, "error", err)
			continue
		}
		metricSweptDirs.Inc()
		s.logger.Info("removed expired recording directory",
			"dir", dir, "age", now.Sub(info.ModTime()).Round(time.Second).String())
	}
}
