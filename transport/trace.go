package transport

import (
	"fmt"
	"io"
	"sync"
)

// Tracer receives raw wire traffic for debugging. Implementations must be
// safe for use from concurrently running scenarios.
type Tracer interface {
	RawRequest(method, url string, body []byte)
	RawResponse(status string, body []byte)
}

// NewWriterTracer returns a Tracer that prints traffic to w, one block per
// message.
func NewWriterTracer(w io.Writer) Tracer {
	return &writerTracer{w: w}
}

type writerTracer struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *writerTracer) RawRequest(method, url string, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(body) == 0 {
		fmt.Fprintf(t.w, ">> %s %s\n", method, url)
		return
	}
	fmt.Fprintf(t.w, ">> %s %s\n%s\n", method, url, body)
}

func (t *writerTracer) RawResponse(status string, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(body) == 0 {
		fmt.Fprintf(t.w, "<< %s\n", status)
		return
	}
	fmt.Fprintf(t.w, "<< %s\n%s\n", status, body)
}
