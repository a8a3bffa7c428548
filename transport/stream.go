package transport

import (
	"context"
	"io"
)

// EventStream owns the live response body of a streaming call, along with
// the cancel func bounding it. Reads block until the server produces data,
// the stream ends, or the per-call budget elapses. Closing the stream
// releases the connection; it is safe to close after a partial read.
type EventStream struct {
	body   io.ReadCloser
	cancel context.CancelFunc
}

func newEventStream(body io.ReadCloser, cancel context.CancelFunc) *EventStream {
	return &EventStream{body: body, cancel: cancel}
}

func (s *EventStream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// Close cancels the request context and closes the underlying body. On
// timeout or caller cancellation this is what tears the connection down
// rather than blocking on a terminator that may never come.
func (s *EventStream) Close() error {
	s.cancel()
	// Drain so the connection can be reused when the stream ended cleanly.
	io.Copy(io.Discard, s.body)
	return s.body.Close()
}
