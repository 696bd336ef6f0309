package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSSE writes one event in server-sent-event framing: a single
// `data: <json>` line terminated by a blank line.
func WriteSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
