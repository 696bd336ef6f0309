package api

import (
	"encoding/json"
	"net/http"

	"github.com/agentrank/engine/pkg/scan"
	"github.com/agentrank/engine/pkg/stream"
)

// handleScanStream runs a scan and relays its events over SSE. The
// response body carries one `data:` frame per event, flushed as it
// happens; a client disconnect cancels the scan.
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	if !s.allowScan(w) {
		return
	}

	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.streamScan(w, r, req)
}

// streamScan is the shared SSE relay for scan and one-shot task
// streams. Heavy lifting stays in the orchestrator; this loop only
// frames and flushes.
func (s *Server) streamScan(w http.ResponseWriter, r *http.Request, req scan.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for ev := range s.orch.Run(ctx, req) {
		if err := stream.WriteSSE(w, ev); err != nil {
			// Client went away; ctx cancellation tears down the scan.
			s.logger.Debug("sse write failed", "error", err)
			return
		}
		flusher.Flush()
	}
}
