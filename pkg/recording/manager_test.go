package recording

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrank/engine/pkg/logging"
)

type fakeStore struct {
	configured bool
	failures   int // fail this many uploads before succeeding
	calls      int
	lastKey    string
	lastType   string
	url        string
}

func (f *fakeStore) Upload(ctx context.Context, localPath, key, contentType string) (string, error) {
	f.calls++
	f.lastKey = key
	f.lastType = contentType
	if f.calls <= f.failures {
		return "", &StoreError{Op: "put_object", Err: fmt.Errorf("transient failure %d", f.calls)}
	}
	return f.url, nil
}

func (f *fakeStore) Configured() bool {
	return f.configured
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "recording", slog.LevelError)
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func writeMedia(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0644))
	return path
}

func TestFinalizeNoMediaReturnsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{configured: true, url: "https://replays.example.com/x"}
	m := NewManager(t.TempDir(), store, fastRetry(), testLogger())

	url, err := m.Finalize(context.Background(), dir, "abc123")
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Zero(t, store.calls)
}

func TestFinalizeMissingDirReturnsAbsent(t *testing.T) {
	m := NewManager(t.TempDir(), &fakeStore{configured: true}, fastRetry(), testLogger())

	url, err := m.Finalize(context.Background(), filepath.Join(t.TempDir(), "gone"), "abc123")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestFinalizeUploadsAndRemovesDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abc123")
	writeMedia(t, dir, "abc123.webm")

	store := &fakeStore{configured: true, url: "https://replays.example.com/replays/abc123.webm"}
	m := NewManager(root, store, fastRetry(), testLogger())

	url, err := m.Finalize(context.Background(), dir, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://replays.example.com/replays/abc123.webm", url)
	assert.Equal(t, "replays/abc123.webm", store.lastKey)
	assert.Equal(t, "video/webm", store.lastType)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "recording dir should be removed after upload")
}

func TestFinalizeRetriesTransientFailures(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abc123")
	writeMedia(t, dir, "abc123.webm")

	store := &fakeStore{configured: true, failures: 2, url: "https://replays.example.com/ok"}
	m := NewManager(root, store, fastRetry(), testLogger())

	url, err := m.Finalize(context.Background(), dir, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://replays.example.com/ok", url)
	assert.Equal(t, 3, store.calls)
}

func TestFinalizeExhaustedRetriesLeavesFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abc123")
	path := writeMedia(t, dir, "abc123.webm")

	store := &fakeStore{configured: true, failures: 99}
	m := NewManager(root, store, fastRetry(), testLogger())

	url, err := m.Finalize(context.Background(), dir, "abc123")
	require.NoError(t, err, "upload failure must not propagate")
	assert.Empty(t, url)
	assert.Equal(t, 3, store.calls)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "local file must stay for the retention sweeper")
}

func TestFinalizeUnconfiguredStoreSkipsUpload(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abc123")
	path := writeMedia(t, dir, "abc123.webm")

	store := &fakeStore{configured: false}
	m := NewManager(root, store, fastRetry(), testLogger())

	url, err := m.Finalize(context.Background(), dir, "abc123")
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Zero(t, store.calls)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestFinalizeCancelledContextStopsRetrying(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "abc123")
	writeMedia(t, dir, "abc123.webm")

	store := &fakeStore{configured: true, failures: 99}
	m := NewManager(root, store, RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	url, err := m.Finalize(ctx, dir, "abc123")
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Less(t, time.Since(start), time.Second, "cancelled retry loop must not sleep")
}

func TestLocateMediaPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "b.mp4")
	writeMedia(t, dir, "a.webm")
	writeMedia(t, dir, "z.webm")

	path, err := locateMedia(dir)
	require.NoError(t, err)
	// webm outranks mp4; lexicographic filename breaks the tie.
	assert.Equal(t, filepath.Join(dir, "a.webm"), path)
}

func TestLocateMediaIgnoresNonMedia(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "frames.webm"), 0755))

	path, err := locateMedia(dir)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestSessionDir(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil, fastRetry(), testLogger())

	dir, err := m.SessionDir("abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "abc123"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReplayKey(t *testing.T) {
	assert.Equal(t, "replays/abc123.webm", replayKey("abc123", ".webm"))
	assert.Equal(t, "replays/abc123.mp4", replayKey("abc123", ".mp4"))
	assert.Equal(t, "replays/abc123.webm", replayKey("abc123", ""))
}
