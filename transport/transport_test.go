package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T, cfg Config) map[string]Client {
	t.Helper()
	clients := make(map[string]Client)
	for _, name := range []string{BackendRaw, BackendSDK} {
		client, err := New(name, cfg, nil)
		require.NoError(t, err)
		clients[name] = client
	}
	return clients
}

func TestGetBuffersResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL, APIKey: "sk-test"}) {
		t.Run(name, func(t *testing.T) {
			resp, err := client.Get(context.Background(), "/health")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var body struct {
				Status string `json:"status"`
			}
			require.NoError(t, resp.Decode(&body))
			assert.Equal(t, "ok", body.Status)
		})
	}
}

func TestPostSendsJSONPayload(t *testing.T) {
	type payload struct {
		Model string `json:"model"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"model":"gemini-2.5-pro"}`, string(body))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL, APIKey: "sk-test"}) {
		t.Run(name, func(t *testing.T) {
			resp, err := client.Post(context.Background(), "/v1/token-test", payload{Model: "gemini-2.5-pro"})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestNonOKStatusIsDistinguishable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"auth_error"}}`)
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL, APIKey: "bad-key"}) {
		t.Run(name, func(t *testing.T) {
			_, err := client.Get(context.Background(), "/v1/models")
			require.Error(t, err)

			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, KindStatus, terr.Kind)
			assert.Equal(t, http.StatusUnauthorized, terr.StatusCode)
			assert.Equal(t, "invalid api key", terr.Message)
			assert.Equal(t, "auth_error", terr.ErrorType)
		})
	}
}

func TestNonJSONErrorBodyIsEchoed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL}) {
		t.Run(name, func(t *testing.T) {
			_, err := client.Get(context.Background(), "/health")
			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, KindStatus, terr.Kind)
			assert.Equal(t, "upstream exploded", terr.Message)
		})
	}
}

func TestConnectionFailureIsDistinguishable(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	for name, client := range backends(t, Config{BaseURL: url}) {
		t.Run(name, func(t *testing.T) {
			_, err := client.Get(context.Background(), "/health")
			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, KindConnection, terr.Kind)
			assert.Zero(t, terr.StatusCode)
		})
	}
}

func TestTimeoutIsDistinguishable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}) {
		t.Run(name, func(t *testing.T) {
			_, err := client.Get(context.Background(), "/health")
			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, KindTimeout, terr.Kind)
			assert.True(t, IsTimeout(err))
		})
	}
}

func TestStreamDeliversRawLines(t *testing.T) {
	frames := []string{
		`data: {"choices":[{"index":0,"delta":{"content":"one"},"finish_reason":null}]}`,
		`data: {"choices":[{"index":0,"delta":{"content":"two"},"finish_reason":null}]}`,
		`data: [DONE]`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			fmt.Fprintln(w, frame)
			fmt.Fprintln(w)
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL, APIKey: "sk-test"}) {
		t.Run(name, func(t *testing.T) {
			stream, err := client.Stream(context.Background(), "/v1/chat/completions", map[string]any{"stream": true})
			require.NoError(t, err)
			defer stream.Close()

			raw, err := io.ReadAll(stream)
			require.NoError(t, err)
			for _, frame := range frames {
				assert.Contains(t, string(raw), frame)
			}
		})
	}
}

func TestStreamNonOKSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL}) {
		t.Run(name, func(t *testing.T) {
			_, err := client.Stream(context.Background(), "/v1/chat/completions", nil)
			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, KindStatus, terr.Kind)
			assert.Equal(t, http.StatusTooManyRequests, terr.StatusCode)
			assert.Equal(t, "slow down", terr.Message)
		})
	}
}

func TestStreamTimeoutCoversWholeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintln(w, `data: {"choices":[{"index":0,"delta":{"content":"stuck"},"finish_reason":null}]}`)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		// Never emits [DONE], never closes: the read must unblock when
		// the per-call budget elapses.
		<-r.Context().Done()
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL, Timeout: 100 * time.Millisecond}) {
		t.Run(name, func(t *testing.T) {
			stream, err := client.Stream(context.Background(), "/v1/chat/completions", nil)
			require.NoError(t, err)
			defer stream.Close()

			start := time.Now()
			_, err = io.ReadAll(stream)
			require.Error(t, err)
			assert.True(t, IsTimeout(err), "read error should classify as timeout, got: %v", err)
			assert.Less(t, time.Since(start), 5*time.Second, "must not hang waiting for the terminator")
		})
	}
}

func TestTrimsDoubleSlashes(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	for name, client := range backends(t, Config{BaseURL: server.URL + "/"}) {
		t.Run(name, func(t *testing.T) {
			_, err := client.Get(context.Background(), "/health")
			require.NoError(t, err)
			assert.Equal(t, "/health", gotPath)
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("grpc", Config{BaseURL: "http://localhost:3000"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport backend")
}

func TestNormalizeBaseURL(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		expected string
		wantErr  bool
	}{
		{name: "Plain", in: "http://localhost:3000", expected: "http://localhost:3000"},
		{name: "Trailing slash", in: "http://localhost:3000/", expected: "http://localhost:3000"},
		{name: "With path", in: "https://api.example.com/v1/", expected: "https://api.example.com/v1"},
		{name: "Whitespace", in: "  http://localhost:3000  ", expected: "http://localhost:3000"},
		{name: "Empty", in: "", wantErr: true},
		{name: "Missing scheme", in: "localhost:3000", wantErr: true},
		{name: "Missing host", in: "http://", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestWriterTracerOutput(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewWriterTracer(&buf)
	tracer.RawRequest(http.MethodPost, "http://localhost:3000/v1/chat/completions", []byte(`{"model":"m"}`))
	tracer.RawResponse("200 OK", []byte(`{"ok":true}`))

	out := buf.String()
	assert.Contains(t, out, ">> POST http://localhost:3000/v1/chat/completions")
	assert.Contains(t, out, `{"model":"m"}`)
	assert.Contains(t, out, "<< 200 OK")
}
