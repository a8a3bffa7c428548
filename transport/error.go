package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/probelabs/apicheck/oai"
)

// ErrorKind separates the failure modes callers must tell apart.
type ErrorKind int

const (
	// KindConnection means the request never produced a response.
	KindConnection ErrorKind = iota
	// KindTimeout means the per-call budget elapsed.
	KindTimeout
	// KindStatus means the server answered with a non-2xx status.
	KindStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	default:
		return "connection"
	}
}

// Error is the single error type surfaced by both backends.
type Error struct {
	Kind       ErrorKind
	StatusCode int    // set for KindStatus
	ErrorType  string // server-reported error type, when the body had one
	Message    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("server returned %d", e.StatusCode)
	case KindTimeout:
		return fmt.Sprintf("request timed out: %s", e.Message)
	default:
		return fmt.Sprintf("connection failed: %s", e.Message)
	}
}

// IsTimeout reports whether err is a timeout, either one classified by a
// backend or a raw deadline error surfacing out of a stream read.
func IsTimeout(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// classify converts a request error into a typed transport error.
func classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	return &Error{Kind: KindConnection, Message: err.Error()}
}

// statusError builds a KindStatus error, pulling the message out of an
// OpenAI-style error envelope when the body carries one. Unrecognized
// bodies are echoed up to a limit.
func statusError(statusCode int, body []byte) *Error {
	var envelope oai.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &Error{
			Kind:       KindStatus,
			StatusCode: statusCode,
			ErrorType:  envelope.Error.Type,
			Message:    envelope.Error.Message,
		}
	}
	msg := string(body)
	if len(msg) > 1024 {
		msg = msg[:1024]
	}
	return &Error{Kind: KindStatus, StatusCode: statusCode, Message: msg}
}
