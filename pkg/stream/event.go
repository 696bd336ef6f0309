// Package stream defines the typed progress events a scan emits and
// their server-sent-event framing.
package stream

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

// EventType tags one unit of the progress stream.
type EventType string

const (
	EventStart        EventType = "start"
	EventStep         EventType = "step"
	EventProgress     EventType = "progress"
	EventTaskComplete EventType = "task_complete"
	EventTaskFailed   EventType = "task_failed"
	EventComplete     EventType = "complete"
	EventError        EventType = "error"
)

// Step statuses used to bracket long-running actions.
const (
	StepRunning = "running"
	StepDone    = "done"
)

// Event is one unit of the progress stream. Fields are flattened next
// to the type tag on the wire.
type Event struct {
	ID     string
	Type   EventType
	Fields map[string]any
}

// MarshalJSON flattens the payload fields alongside the type tag.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["type"] = string(e.Type)
	if e.ID != "" {
		out["id"] = e.ID
	}
	return json.Marshal(out)
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

func newEvent(t EventType, fields map[string]any) Event {
	return Event{
		ID:     ulid.Make().String(),
		Type:   t,
		Fields: fields,
	}
}

// Start announces a new scan.
func Start(scanID, message string, total int) Event {
	return newEvent(EventStart, map[string]any{
		"scanId":  scanID,
		"message": message,
		"total":   total,
	})
}

// Step reports one sub-action. The step number is a session-wide
// monotonic counter; signal correlates the step to a task when set.
func Step(step int, action, status, signal string) Event {
	fields := map[string]any{
		"step":   step,
		"action": action,
		"status": status,
	}
	if signal != "" {
		fields["signal"] = signal
	}
	return newEvent(EventStep, fields)
}

// Progress announces the start of the index-th diagnostic task.
func Progress(index, total int, signal, name string) Event {
	return newEvent(EventProgress, map[string]any{
		"task_index": index,
		"total":      total,
		"signal":     signal,
		"name":       name,
	})
}

// TaskComplete reports a successful task outcome.
func TaskComplete(signal, output string, inputTokens, outputTokens int) Event {
	return newEvent(EventTaskComplete, map[string]any{
		"signal":       signal,
		"output":       output,
		"inputTokens":  inputTokens,
		"outputTokens": outputTokens,
	})
}

// TaskFailed reports a failed task outcome.
func TaskFailed(signal, errMsg string) Event {
	return newEvent(EventTaskFailed, map[string]any{
		"signal": signal,
		"error":  errMsg,
	})
}

// Complete is the successful terminal event. videoURL is omitted from
// the payload when no artifact was uploaded.
func Complete(results any, videoURL, scanID string, totalInputTokens, totalOutputTokens int) Event {
	fields := map[string]any{
		"success":           true,
		"results":           results,
		"scanId":            scanID,
		"totalInputTokens":  totalInputTokens,
		"totalOutputTokens": totalOutputTokens,
	}
	if videoURL != "" {
		fields["videoUrl"] = videoURL
	}
	return newEvent(EventComplete, fields)
}

// Error is the failed terminal event.
func Error(message, scanID string) Event {
	return newEvent(EventError, map[string]any{
		"message": message,
		"scanId":  scanID,
	})
}
