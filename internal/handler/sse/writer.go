package sse

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Writer writes Server-Sent Events frames and flushes after each one.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewWriter sets the event-stream headers and returns a writer for w.
// Headers are not sent until the first frame is written.
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	return &Writer{w: w, rc: http.NewResponseController(w)}
}

// WriteRetry tells the client how long to wait before reconnecting.
func (s *Writer) WriteRetry(d time.Duration) error {
	return s.write(fmt.Sprintf("retry: %d\n\n", d.Milliseconds()))
}

// WriteEvent writes a named event. Multi-line data is split over several
// data fields as the format requires.
func (s *Writer) WriteEvent(event, data string) error {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return s.write(b.String())
}

// WriteKeepAlive writes an SSE comment, which clients ignore.
func (s *Writer) WriteKeepAlive() error {
	return s.write(": keep-alive\n\n")
}

func (s *Writer) write(frame string) error {
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
