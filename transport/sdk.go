package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const sdkUserAgent = "apicheck-sdk/0.1"

// sdkClient mirrors how a generated API SDK talks to the same endpoints:
// base URL validated and normalized once at construction, a shared request
// builder, and a default HTTP client fallback. Running the suite through
// both backends catches servers that only work with one request style.
type sdkClient struct {
	baseURL    string
	apiKey     string
	cfg        Config
	httpClient *http.Client
	tracer     Tracer
}

func newSDKClient(cfg Config, tracer Tracer) (*sdkClient, error) {
	normalized, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &sdkClient{
		baseURL: normalized,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		cfg:     cfg,
		tracer:  tracer,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("transport: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("transport: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("transport: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("transport: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// SetHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *sdkClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *sdkClient) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

func (c *sdkClient) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, []byte, error) {
	var body io.Reader
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("transport: encoding payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", sdkUserAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, encoded, nil
}

func (c *sdkClient) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())
	defer cancel()

	req, encoded, err := c.newJSONRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if c.tracer != nil {
		c.tracer.RawRequest(method, req.URL.String(), encoded)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	if c.tracer != nil {
		c.tracer.RawResponse(resp.Status, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *sdkClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *sdkClient) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *sdkClient) Stream(ctx context.Context, path string, payload any) (*EventStream, error) {
	// Stream owns the cancel; the budget covers the whole stream.
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())

	req, encoded, err := c.newJSONRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.tracer != nil {
		c.tracer.RawRequest(http.MethodPost, req.URL.String(), encoded)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		cancel()
		return nil, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}
	return newEventStream(resp.Body, cancel), nil
}
