// Package transport issues HTTP requests against an OpenAI-compatible
// endpoint. It exposes one capability interface with two interchangeable
// backends (raw per-call requests and an SDK-style client), selected by
// configuration, so the scenarios above it never care which wire path was
// taken.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTimeout bounds a call when Config.Timeout is left zero.
const DefaultTimeout = 30 * time.Second

// Config identifies the server under test. It is immutable for the lifetime
// of a harness run; every component receives it at construction.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout is the per-call wall-clock budget. For streaming calls it
	// covers the whole stream, first byte to terminator.
	Timeout time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Response is a fully-buffered non-streaming reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the buffered body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Client is the capability surface scenarios run against. Every call opens
// exactly one connection and never retries; retry policy belongs to the
// caller, which knows whether a scenario is safe to replay.
type Client interface {
	// Get issues an authenticated GET and buffers the reply.
	Get(ctx context.Context, path string) (*Response, error)
	// Post issues an authenticated JSON POST and buffers the reply.
	Post(ctx context.Context, path string, payload any) (*Response, error)
	// Stream issues an authenticated JSON POST and hands back the live
	// event stream. The caller owns the stream and must close it.
	Stream(ctx context.Context, path string, payload any) (*EventStream, error)
}

// Backend names accepted by New.
const (
	BackendRaw = "raw"
	BackendSDK = "sdk"
)

// New returns the backend selected by name.
func New(backend string, cfg Config, tracer Tracer) (Client, error) {
	switch backend {
	case BackendRaw:
		return newRawClient(cfg, tracer), nil
	case BackendSDK:
		return newSDKClient(cfg, tracer)
	default:
		return nil, fmt.Errorf("unknown transport backend %q (want %q or %q)", backend, BackendRaw, BackendSDK)
	}
}
