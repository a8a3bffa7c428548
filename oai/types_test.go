package oai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestValidate(t *testing.T) {
	valid := ChatRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "Hi"}},
	}

	testCases := []struct {
		name    string
		mutate  func(r *ChatRequest)
		wantErr string
	}{
		{
			name:   "Valid request",
			mutate: func(r *ChatRequest) {},
		},
		{
			name:    "Missing model",
			mutate:  func(r *ChatRequest) { r.Model = "" },
			wantErr: "model is required",
		},
		{
			name:    "Empty messages",
			mutate:  func(r *ChatRequest) { r.Messages = nil },
			wantErr: "messages must not be empty",
		},
		{
			name:    "Unknown role",
			mutate:  func(r *ChatRequest) { r.Messages = []Message{{Role: "tool", Content: "x"}} },
			wantErr: `unknown role "tool"`,
		},
		{
			name:    "Negative max_tokens",
			mutate:  func(r *ChatRequest) { r.MaxTokens = -1 },
			wantErr: "max_tokens must not be negative",
		},
		{
			name:    "Temperature above range",
			mutate:  func(r *ChatRequest) { r.Temperature = Temp(2.5) },
			wantErr: "temperature must be in [0,2]",
		},
		{
			name:   "Temperature at bounds",
			mutate: func(r *ChatRequest) { r.Temperature = Temp(2) },
		},
		{
			name: "System message anywhere in the sequence",
			mutate: func(r *ChatRequest) {
				r.Messages = []Message{
					{Role: RoleUser, Content: "a"},
					{Role: RoleSystem, Content: "b"},
					{Role: RoleUser, Content: "c"},
				}
			},
		},
		{
			name: "Roles need not alternate",
			mutate: func(r *ChatRequest) {
				r.Messages = []Message{
					{Role: RoleUser, Content: "a"},
					{Role: RoleUser, Content: "b"},
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := req.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestChatRequestOmitsUnsetOptionals(t *testing.T) {
	data, err := json.Marshal(ChatRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "temperature")
	assert.NotContains(t, fields, "max_tokens")
	assert.NotContains(t, fields, "include_reasoning")
	assert.NotContains(t, fields, "thinking_budget")
	assert.Contains(t, fields, "stream", "stream is always explicit")
}

func TestUsageConsistent(t *testing.T) {
	assert.True(t, Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}.Consistent())
	assert.False(t, Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 14}.Consistent())
	assert.True(t, Usage{}.Consistent())
}

func TestChatResponseContent(t *testing.T) {
	var resp ChatResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gemini-2.5-pro",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Olá!"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
	}`), &resp))

	assert.Equal(t, "Olá!", resp.Content())
	require.NotNil(t, resp.Usage)
	assert.True(t, resp.Usage.Consistent())

	assert.Empty(t, ChatResponse{}.Content(), "no choices means no content")
}

func TestChunkDeltaContent(t *testing.T) {
	var chunk Chunk
	require.NoError(t, json.Unmarshal([]byte(`{
		"choices": [{"index": 0, "delta": {"content": "frag"}, "finish_reason": null}]
	}`), &chunk))
	assert.Equal(t, "frag", chunk.DeltaContent())

	require.NoError(t, json.Unmarshal([]byte(`{
		"choices": [{"index": 0, "delta": {"content": null}, "finish_reason": "stop"}]
	}`), &chunk))
	assert.Empty(t, chunk.DeltaContent(), "null content is empty, not a panic")

	assert.Empty(t, Chunk{}.DeltaContent())
}

func TestModelList(t *testing.T) {
	list := ModelList{
		Object: "list",
		Data: []Model{
			{ID: "gemini-2.5-pro"},
			{ID: "gemini-2.5-flash"},
		},
	}
	assert.True(t, list.Has("gemini-2.5-pro"))
	assert.False(t, list.Has("gpt-4"))
	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, list.IDs())
}
