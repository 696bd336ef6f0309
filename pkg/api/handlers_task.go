package api

import (
	"encoding/json"
	"net/http"

	"github.com/agentrank/engine/pkg/scan"
	"github.com/agentrank/engine/pkg/stream"
)

// oneShotSignal labels the synthesized task of the /task endpoints.
const oneShotSignal = "task"

// TaskRequest is the one-shot form: a single instruction against a
// URL, no signal bookkeeping required from the caller.
type TaskRequest struct {
	Task        string `json:"task"`
	URL         string `json:"url"`
	RecordVideo *bool  `json:"record_video,omitempty"`
}

// TaskResponse is the aggregated outcome of a one-shot task.
type TaskResponse struct {
	Success    bool     `json:"success"`
	Output     string   `json:"output,omitempty"`
	Error      string   `json:"error,omitempty"`
	Steps      int      `json:"steps"`
	Transcript []string `json:"transcript"`
	VideoURL   string   `json:"videoUrl,omitempty"`
	ScanID     string   `json:"scanId,omitempty"`
}

func (tr TaskRequest) toScan() (scan.Request, error) {
	req := scan.Request{
		URL: tr.URL,
		Tasks: []scan.Task{{
			Name:   "Task",
			Signal: oneShotSignal,
			Prompt: tr.Task,
		}},
		RecordVideo: tr.RecordVideo,
	}
	return req, req.Validate()
}

func decodeTaskRequest(w http.ResponseWriter, r *http.Request) (scan.Request, bool) {
	var tr TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return scan.Request{}, false
	}
	if tr.Task == "" {
		writeError(w, http.StatusBadRequest, "task is required")
		return scan.Request{}, false
	}
	req, err := tr.toScan()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return scan.Request{}, false
	}
	return req, true
}

// handleTaskStream streams a one-shot task as SSE.
func (s *Server) handleTaskStream(w http.ResponseWriter, r *http.Request) {
	if !s.allowScan(w) {
		return
	}
	req, ok := decodeTaskRequest(w, r)
	if !ok {
		return
	}
	s.streamScan(w, r, req)
}

// handleTask runs a one-shot task to completion and answers with a
// single aggregated JSON document instead of a stream.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	if !s.allowScan(w) {
		return
	}
	req, ok := decodeTaskRequest(w, r)
	if !ok {
		return
	}

	resp := TaskResponse{Transcript: []string{}}
	for ev := range s.orch.Run(r.Context(), req) {
		switch ev.Type {
		case stream.EventStart:
			if id, ok := ev.Fields["scanId"].(string); ok {
				resp.ScanID = id
			}
		case stream.EventStep:
			// Only agent-attributed steps belong in the transcript;
			// infrastructure bracketing does not.
			if _, attributed := ev.Fields["signal"]; attributed {
				if action, ok := ev.Fields["action"].(string); ok {
					resp.Transcript = append(resp.Transcript, action)
				}
			}
		case stream.EventComplete:
			if results, ok := ev.Fields["results"].([]scan.TaskResult); ok && len(results) > 0 {
				resp.Success = results[0].Success
				resp.Output = results[0].Output
				resp.Error = results[0].Error
			}
			if url, ok := ev.Fields["videoUrl"].(string); ok {
				resp.VideoURL = url
			}
			if id, ok := ev.Fields["scanId"].(string); ok {
				resp.ScanID = id
			}
		case stream.EventError:
			if msg, ok := ev.Fields["message"].(string); ok {
				resp.Error = msg
			}
			if id, ok := ev.Fields["scanId"].(string); ok {
				resp.ScanID = id
			}
		}
	}
	resp.Steps = len(resp.Transcript)

	writeJSON(w, http.StatusOK, resp)
}
