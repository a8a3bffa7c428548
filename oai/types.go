package oai

import (
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a POST /v1/chat/completions call. Optional
// fields use omitempty so servers that reject unknown knobs never see them.
type ChatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Stream           bool      `json:"stream"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	Temperature      *float64  `json:"temperature,omitempty"`
	IncludeReasoning bool      `json:"include_reasoning,omitempty"`
	ThinkingBudget   int       `json:"thinking_budget,omitempty"`
}

// Validate checks the invariants a well-formed request must hold before it
// is sent anywhere.
func (r ChatRequest) Validate() error {
	if r.Model == "" {
		return errors.New("model is required")
	}
	if len(r.Messages) == 0 {
		return errors.New("messages must not be empty")
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", r.MaxTokens)
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be in [0,2], got %g", *r.Temperature)
	}
	return nil
}

// Temp is a convenience for filling the optional Temperature field.
func Temp(t float64) *float64 {
	return &t
}

// Usage is the token accounting block servers may attach to a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Consistent reports whether total_tokens is the sum of its parts.
func (u Usage) Consistent() bool {
	return u.TotalTokens == u.PromptTokens+u.CompletionTokens
}

func (u Usage) String() string {
	return fmt.Sprintf("prompt=%d completion=%d total=%d", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}

// ResponseMessage is the assistant message inside a non-streaming choice.
// Reasoning is non-standard; some servers attach it when asked to think.
type ResponseMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

// ChatResponse is a fully-buffered (non-streaming) completion.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Content returns the first choice's message content, or "" when the
// response carries no choices.
func (r ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Delta is one incremental fragment of a streamed message. Content is a
// pointer because the wire format uses null for contentless frames (role
// announcements, finish markers).
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content"`
}

type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Chunk is one decoded streaming event. Usage, when present at all,
// typically arrives on the final chunk only.
type Chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
}

// DeltaContent returns the first choice's delta content, or "" when the
// chunk carries none.
func (c Chunk) DeltaContent() string {
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == nil {
		return ""
	}
	return *c.Choices[0].Delta.Content
}

// Model is one entry of the /v1/models listing.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by,omitempty"`
}

type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Has reports whether the listing contains the given model identifier.
func (l ModelList) Has(id string) bool {
	for _, m := range l.Data {
		if m.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the listed model identifiers in listing order.
func (l ModelList) IDs() []string {
	ids := make([]string, 0, len(l.Data))
	for _, m := range l.Data {
		ids = append(ids, m.ID)
	}
	return ids
}

// ErrorResponse is the OpenAI-style error envelope returned on non-2xx.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
