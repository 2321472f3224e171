package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentskills/marketplace/internal/composer"
)

// sseWriter streams generation events to the client as server-sent events,
// one `data: <json>` frame per event, flushed immediately. Headers are
// written lazily on the first frame so failures before the stream starts can
// still return a plain JSON error. After a terminal frame every further Send
// is a no-op.
type sseWriter struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	started  bool
	terminal bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &sseWriter{w: w, flusher: flusher}, nil
}

// Started reports whether any frame has been written yet.
func (s *sseWriter) Started() bool {
	return s.started
}

// Send writes one event frame. It implements composer.EventSink.
func (s *sseWriter) Send(ctx context.Context, event composer.Event) error {
	if s.terminal {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.Header().Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	s.flusher.Flush()

	if event.Terminal() {
		s.terminal = true
	}
	return nil
}
