package harness

import (
	"context"
	"fmt"

	"github.com/probelabs/apicheck/oai"
	"github.com/probelabs/apicheck/sse"
	"github.com/probelabs/apicheck/transport"
)

const completionsPath = "/v1/chat/completions"

func runHealth(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := client.Get(ctx, "/health")
	if err != nil {
		return failErr("health", err)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := resp.Decode(&body); err != nil {
		return failErr("health", err)
	}
	if body.Status == "" {
		return fail("health", "response has no status field")
	}
	return pass("health", "status: "+body.Status)
}

func runRoot(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := client.Get(ctx, "/")
	if err != nil {
		return failErr("root", err)
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := resp.Decode(&body); err != nil {
		return failErr("root", err)
	}
	if body.Name == "" {
		return fail("root", "response has no name field")
	}
	return pass("root", "name: "+body.Name)
}

func runModels(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := client.Get(ctx, "/v1/models")
	if err != nil {
		return failErr("models", err)
	}
	var list oai.ModelList
	if err := resp.Decode(&list); err != nil {
		return failErr("models", err)
	}
	if !list.Has(opts.Model) {
		return fail("models", fmt.Sprintf("%s not in model list (%d models)", opts.Model, len(list.Data)))
	}
	return pass("models", fmt.Sprintf("found %d models, %s available", len(list.Data), opts.Model))
}

// completion posts a non-streaming request and returns the decoded
// response. Shared by every scenario that only differs in its payload.
func completion(ctx context.Context, client transport.Client, req oai.ChatRequest) (oai.ChatResponse, error) {
	var out oai.ChatResponse
	if err := req.Validate(); err != nil {
		return out, err
	}
	resp, err := client.Post(ctx, completionsPath, req)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func runSimpleCompletion(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := completion(ctx, client, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: oai.RoleUser, Content: "Hello! How are you? Answer in one short sentence."},
		},
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return failErr("simple_completion", err)
	}
	if resp.Content() == "" {
		return fail("simple_completion", "empty message content")
	}
	return pass("simple_completion", "response: "+preview(resp.Content()))
}

func runStreamingCompletion(ctx context.Context, client transport.Client, opts Options) Result {
	req := oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: oai.RoleUser, Content: "Tell a very short story about a robot."},
		},
		Stream:    true,
		MaxTokens: opts.MaxTokens,
	}
	if err := req.Validate(); err != nil {
		return failErr("streaming_completion", err)
	}
	stream, err := client.Stream(ctx, completionsPath, req)
	if err != nil {
		return failErr("streaming_completion", err)
	}
	defer stream.Close()

	dec := sse.NewDecoder(stream)
	var acc sse.Accumulator
	if err := sse.Drain(ctx, dec, &acc); err != nil {
		return failErr("streaming_completion", err)
	}
	if !acc.Terminated() {
		return fail("streaming_completion", fmt.Sprintf("stream closed without [DONE] after %d chunks", acc.ChunkCount()))
	}
	if acc.ChunkCount() == 0 {
		return fail("streaming_completion", "stream terminated but produced no content chunks")
	}
	detail := fmt.Sprintf("received %d chunks: %s", acc.ChunkCount(), preview(acc.Text()))
	if n := dec.Malformed(); n > 0 {
		detail += fmt.Sprintf(" (%d malformed frames skipped)", n)
	}
	return pass("streaming_completion", detail)
}

func runReasoningMode(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := completion(ctx, client, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: oai.RoleUser, Content: "Solve this step by step: what is 15% of 240?"},
		},
		MaxTokens:        opts.MaxTokens,
		IncludeReasoning: true,
		ThinkingBudget:   opts.ThinkingBudget,
	})
	if err != nil {
		return failErr("reasoning_mode", err)
	}
	if resp.Content() == "" {
		return fail("reasoning_mode", "empty message content")
	}
	// Reasoning-field support is optional; its presence is informational.
	detail := "response: " + preview(resp.Content())
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Reasoning != "" {
		detail += " (reasoning field present)"
	}
	return pass("reasoning_mode", detail)
}

func runSystemMessage(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := completion(ctx, client, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: oai.RoleSystem, Content: "You are a math tutor that explains every calculation step by step."},
			{Role: oai.RoleUser, Content: "What is 25% of 80?"},
		},
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return failErr("system_message", err)
	}
	if resp.Content() == "" {
		return fail("system_message", "empty message content")
	}
	return pass("system_message", "response: "+preview(resp.Content()))
}

func runMultiTurn(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := completion(ctx, client, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: oai.RoleSystem, Content: "You are a helpful assistant."},
			{Role: oai.RoleUser, Content: "What is the capital of Brazil?"},
			{Role: oai.RoleAssistant, Content: "The capital of Brazil is Brasília."},
			{Role: oai.RoleUser, Content: "And what is the population of that city?"},
		},
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return failErr("multi_turn", err)
	}
	if resp.Content() == "" {
		return fail("multi_turn", "empty message content")
	}
	return pass("multi_turn", "response: "+preview(resp.Content()))
}

func runTemperatureControl(ctx context.Context, client transport.Client, opts Options) Result {
	prompt := "Complete this sentence creatively: the cat climbed onto the roof and..."
	for _, temp := range []float64{0.1, 0.9} {
		resp, err := completion(ctx, client, oai.ChatRequest{
			Model: opts.Model,
			Messages: []oai.Message{
				{Role: oai.RoleUser, Content: prompt},
			},
			MaxTokens:   opts.MaxTokens,
			Temperature: oai.Temp(temp),
		})
		if err != nil {
			return failErr("temperature_control", err)
		}
		if resp.Content() == "" {
			return fail("temperature_control", fmt.Sprintf("empty content at temperature %.1f", temp))
		}
	}
	return pass("temperature_control", "completions at temperature 0.1 and 0.9 both answered")
}

func runDebugEndpoints(ctx context.Context, client transport.Client, opts Options) Result {
	if _, err := client.Get(ctx, "/v1/debug/cache"); err != nil {
		return failErr("debug_endpoints", fmt.Errorf("cache status: %w", err))
	}
	if _, err := client.Post(ctx, "/v1/token-test", nil); err != nil {
		return failErr("debug_endpoints", fmt.Errorf("token test: %w", err))
	}
	return pass("debug_endpoints", "cache status and token test both returned 200")
}

func runUsageReporting(ctx context.Context, client transport.Client, opts Options) Result {
	resp, err := completion(ctx, client, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: oai.RoleUser, Content: "Write one paragraph about artificial intelligence."},
		},
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return failErr("usage_reporting", err)
	}
	if resp.Usage == nil {
		return fail("usage_reporting", "response has no usage object")
	}
	if !resp.Usage.Consistent() {
		return fail("usage_reporting", fmt.Sprintf("total_tokens mismatch: %s", resp.Usage))
	}
	return pass("usage_reporting", resp.Usage.String())
}
