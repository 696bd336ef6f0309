package recording

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentrank/engine/pkg/config"
	"github.com/agentrank/engine/pkg/logging"
)

// mediaExtPrecedence orders accepted container formats. When a session
// directory holds several media files the earliest extension wins, with
// lexicographic filename order breaking ties.
var mediaExtPrecedence = []string{".webm", ".mp4", ".mkv", ".ogg"}

var contentTypes = map[string]string{
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".ogg":  "video/ogg",
}

// RetryConfig configures the upload retry mechanism.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the default upload retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: config.DefaultUploadAttempts,
		BaseDelay:   config.DefaultUploadBaseDelay,
		MaxDelay:    config.DefaultUploadMaxDelay,
	}
}

// Manager owns the recording directory of each scan and drives the
// upload plus local cleanup after the browser session closes.
type Manager struct {
	root   string
	store  Store
	retry  RetryConfig
	logger *logging.Logger
}

// NewManager creates a Manager rooted at root.
func NewManager(root string, store Store, retry RetryConfig, logger *logging.Logger) *Manager {
	if retry.MaxAttempts < 1 {
		retry = DefaultRetryConfig()
	}
	return &Manager{root: root, store: store, retry: retry, logger: logger}
}

// Root returns the recordings root directory.
func (m *Manager) Root() string {
	return m.root
}

// SessionDir creates and returns the per-scan recording directory.
func (m *Manager) SessionDir(scanID string) (string, error) {
	dir := filepath.Join(m.root, scanID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create recording dir: %w", err)
	}
	return dir, nil
}

// Finalize locates the produced media file in dir, uploads it, and
// removes the directory on success. It returns the public URL, or ""
// when no media exists, the store is unconfigured, or the upload
// failed past the retry budget. Upload failure is never an error: the
// file stays on disk for the retention sweeper.
func (m *Manager) Finalize(ctx context.Context, dir, scanID string) (string, error) {
	path, err := locateMedia(dir)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}

	if m.store == nil || !m.store.Configured() {
		m.logger.Info("replay store not configured, keeping local recording",
			"scan_id", scanID, "path", path)
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	key := replayKey(scanID, ext)
	url, err := m.uploadWithRetry(ctx, path, key, contentTypes[ext])
	if err != nil {
		metricUploadsFailed.Inc()
		m.logger.Error("replay upload failed, keeping local recording",
			"scan_id", scanID, "path", path, "error", err)
		return "", nil
	}

	metricUploadsSucceeded.Inc()
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove recording dir after upload",
			"scan_id", scanID, "dir", dir, "error", err)
	}
	return url, nil
}

// uploadWithRetry retries transient store failures with exponential
// backoff, honoring ctx cancellation between attempts.
func (m *Manager) uploadWithRetry(ctx context.Context, path, key, contentType string) (string, error) {
	var lastErr error
	delay := m.retry.BaseDelay

	for attempt := 1; attempt <= m.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
			if delay > m.retry.MaxDelay {
				delay = m.retry.MaxDelay
			}
		}

		url, err := m.store.Upload(ctx, path, key, contentType)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		m.logger.Warn("replay upload attempt failed",
			"attempt", attempt, "max_attempts", m.retry.MaxAttempts, "error", err)
	}
	return "", lastErr
}

// locateMedia finds the replay file in dir following the extension
// precedence. A missing directory or no media returns "".
func locateMedia(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("scan recording dir: %w", err)
	}

	bestRank := len(mediaExtPrecedence)
	best := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		rank := extRank(strings.ToLower(filepath.Ext(name)))
		if rank < 0 {
			continue
		}
		if rank < bestRank || (rank == bestRank && name < best) {
			bestRank = rank
			best = name
		}
	}
	if best == "" {
		return "", nil
	}
	return filepath.Join(dir, best), nil
}

func extRank(ext string) int {
	for i, e := range mediaExtPrecedence {
		if e == ext {
			return i
		}
	}
	return -1
}

// replayKey names the object in the replay bucket.
func replayKey(scanID, ext string) string {
	if ext == "" {
		ext = ".webm"
	}
	return "replays/" + scanID + ext
}
