package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrank/engine/pkg/logging"
	"github.com/agentrank/engine/pkg/scan"
	"github.com/agentrank/engine/pkg/stream"
)

type fakeOrch struct {
	events []stream.Event
	got    scan.Request
}

func (f *fakeOrch) Run(ctx context.Context, req scan.Request) <-chan stream.Event {
	f.got = req
	ch := make(chan stream.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func newTestServer(t *testing.T, orch ScanRunner, opts ...func(*ServerConfig)) *httptest.Server {
	t.Helper()
	cfg := ServerConfig{
		Orchestrator:      orch,
		ScanRatePerMinute: 6000,
		ScanBurst:         100,
		Logger:            logging.NewWithWriter(io.Discard, "api", slog.LevelError),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ts := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeSSE(t *testing.T, body io.Reader) []map[string]any {
	t.Helper()
	var events []map[string]any
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
		events = append(events, payload)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, &fakeOrch{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["video_recording"])
	assert.Equal(t, true, body["streaming"])
}

func TestHandleScanStream(t *testing.T) {
	orch := &fakeOrch{events: []stream.Event{
		stream.Start("ab12cd34", "Starting scan of https://example.com", 1),
		stream.Step(0, "launch browser", stream.StepRunning, ""),
		stream.Step(1, "launch browser", stream.StepDone, ""),
		stream.Complete([]scan.TaskResult{{Signal: "t", Success: true}}, "", "ab12cd34", 3, 1),
	}}
	ts := newTestServer(t, orch)

	resp, err := http.Post(ts.URL+"/scan/stream", "application/json",
		strings.NewReader(`{"url":"https://example.com","tasks":[{"name":"T","signal":"t","prompt":"do"}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	events := decodeSSE(t, resp.Body)
	require.Len(t, events, 4)
	assert.Equal(t, "start", events[0]["type"])
	assert.Equal(t, "step", events[1]["type"])
	assert.Equal(t, "complete", events[3]["type"])
	assert.Equal(t, "ab12cd34", events[3]["scanId"])

	assert.Equal(t, "https://example.com", orch.got.URL)
	require.Len(t, orch.got.Tasks, 1)
	assert.Equal(t, "t", orch.got.Tasks[0].Signal)
}

func TestHandleScanStreamRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, &fakeOrch{})

	resp, err := http.Post(ts.URL+"/scan/stream", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/scan/stream", "application/json",
		strings.NewReader(`{"tasks":[{"name":"T","signal":"t","prompt":"do"}]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleTaskAggregates(t *testing.T) {
	orch := &fakeOrch{events: []stream.Event{
		stream.Start("ab12cd34", "Starting scan of https://example.com", 1),
		stream.Step(0, "launch browser", stream.StepRunning, ""),
		stream.Step(1, "launch browser", stream.StepDone, ""),
		stream.Progress(0, 1, "task", "Task"),
		stream.Step(2, "opened the pricing page", stream.StepDone, "task"),
		stream.Step(3, "read the plan table", stream.StepDone, "task"),
		stream.TaskComplete("task", "three plans offered", 10, 4),
		stream.Step(4, "close browser session", stream.StepDone, ""),
		stream.Complete([]scan.TaskResult{{
			Signal: "task", Success: true, Output: "three plans offered", InputTokens: 10, OutputTokens: 4,
		}}, "https://replays.example.com/replays/ab12cd34.webm", "ab12cd34", 10, 4),
	}}
	ts := newTestServer(t, orch)

	resp, err := http.Post(ts.URL+"/task", "application/json",
		strings.NewReader(`{"task":"Check the pricing page","url":"https://example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body TaskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.True(t, body.Success)
	assert.Equal(t, "three plans offered", body.Output)
	assert.Empty(t, body.Error)
	assert.Equal(t, []string{"opened the pricing page", "read the plan table"}, body.Transcript)
	assert.Equal(t, 2, body.Steps)
	assert.Equal(t, "https://replays.example.com/replays/ab12cd34.webm", body.VideoURL)
	assert.Equal(t, "ab12cd34", body.ScanID)

	// One-shot requests synthesize a single task.
	require.Len(t, orch.got.Tasks, 1)
	assert.Equal(t, "task", orch.got.Tasks[0].Signal)
	assert.Equal(t, "Check the pricing page", orch.got.Tasks[0].Prompt)
}

func TestHandleTaskErrorStream(t *testing.T) {
	orch := &fakeOrch{events: []stream.Event{
		stream.Error("target URL unreachable: status 404", "ab12cd34"),
	}}
	ts := newTestServer(t, orch)

	resp, err := http.Post(ts.URL+"/task", "application/json",
		strings.NewReader(`{"task":"do","url":"https://example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body TaskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "404")
	assert.Equal(t, "ab12cd34", body.ScanID)
}

func TestHandleTaskRequiresTask(t *testing.T) {
	ts := newTestServer(t, &fakeOrch{})

	resp, err := http.Post(ts.URL+"/task", "application/json",
		strings.NewReader(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScanRateLimit(t *testing.T) {
	ts := newTestServer(t, &fakeOrch{}, func(cfg *ServerConfig) {
		cfg.ScanRatePerMinute = 1
		cfg.ScanBurst = 1
	})

	body := `{"task":"do","url":"https://example.com"}`
	resp, err := http.Post(ts.URL+"/task", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/task", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeOrch{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
}
