package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tmaxmax/go-sse"
)

const maxEventSize = 8 << 20

var errStreamClosed = errors.New("event stream closed")

// streamEvent is one dispatched Server-Sent Event.
type streamEvent struct {
	Name string
	ID   string
	Data json.RawMessage
}

// readEvents parses a text/event-stream body and calls emit for every
// complete event. Events without a name default to "message". It returns
// nil once ctx is done.
func readEvents(ctx context.Context, body io.Reader, emit func(streamEvent)) error {
	for ev, err := range sse.Read(body, &sse.ReadConfig{MaxEventSize: maxEventSize}) {
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event stream: %w", err)
		}
		name := ev.Type
		if name == "" {
			name = "message"
		}
		emit(streamEvent{Name: name, ID: ev.LastEventID, Data: json.RawMessage(ev.Data)})
	}
	if ctx.Err() != nil {
		return nil
	}
	return errStreamClosed
}
