// Package recording owns the per-scan recording directories: locating
// produced media, uploading replays, and sweeping expired directories.
package recording

import (
	"context"
	"fmt"
)

// Store uploads a local replay file and returns its public URL.
type Store interface {
	Upload(ctx context.Context, localPath, key, contentType string) (string, error)

	// Configured reports whether the store has credentials. An
	// unconfigured store skips uploads instead of failing scans.
	Configured() bool
}

// StoreError wraps a storage backend failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
