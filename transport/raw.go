package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// rawClient builds a plain http.Request per call, the most literal reading
// of the wire protocol. Useful when conformance results must not depend on
// any client-library smarts.
type rawClient struct {
	cfg        Config
	httpClient *http.Client
	tracer     Tracer
}

func newRawClient(cfg Config, tracer Tracer) *rawClient {
	return &rawClient{cfg: cfg, tracer: tracer}
}

// SetHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *rawClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *rawClient) url(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}

func (c *rawClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *rawClient) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

func (c *rawClient) Get(ctx context.Context, path string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if c.tracer != nil {
		c.tracer.RawRequest(http.MethodGet, req.URL.String(), nil)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return c.buffer(resp)
}

func (c *rawClient) Post(ctx context.Context, path string, payload any) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())
	defer cancel()

	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	return c.buffer(resp)
}

func (c *rawClient) Stream(ctx context.Context, path string, payload any) (*EventStream, error) {
	// Not deferred: the budget covers the whole stream, and the stream
	// owns the cancel from here on.
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())

	resp, err := c.post(ctx, path, payload)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}
	return newEventStream(resp.Body, cancel), nil
}

func (c *rawClient) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	var body io.Reader
	var jsonData []byte
	if payload != nil {
		var err error
		jsonData, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error encoding JSON: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if c.tracer != nil {
		c.tracer.RawRequest(http.MethodPost, req.URL.String(), jsonData)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

func (c *rawClient) buffer(resp *http.Response) (*Response, error) {
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
