// Package llm defines the Provider abstraction used by the Prompt Builder and
// Agent Response Parser to talk to whichever LLM backend a deployment
// configures (OpenAI, Anthropic, Gemini, Ollama, or any-llm's unified
// surface), without coupling either of them to a specific SDK.
//
// Implementations must be safe for concurrent use: a single running sales
// session may have a streaming completion in flight for the chat turn while
// the Sales Analyzer kicks off a profile-update completion concurrently.
package llm

import (
	"context"

	"github.com/salesagent/runtime/pkg/types"
)

// Usage holds token accounting for a single completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce the next
// agent turn. Messages always includes the rendered page-context block built
// by the Prompt Builder (spec §4.11).
type CompletionRequest struct {
	Messages     []types.Message
	Tools        []types.ToolDefinition
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Chunk is a single fragment emitted by a streaming completion.
type Chunk struct {
	Text         string
	FinishReason string
	ToolCalls    []types.ToolCall
}

// CompletionResponse is the full result of a non-streaming completion.
type CompletionResponse struct {
	Content   string
	ToolCalls []types.ToolCall
	Usage     Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// StreamCompletion emits Chunk values as they arrive. The channel is
	// closed when generation finishes or ctx is cancelled. A non-nil error
	// return means the stream never started; mid-stream failures surface as
	// a Chunk with FinishReason "error".
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Complete waits for the full response. A convenience wrapper around
	// StreamCompletion for callers that don't need incremental output, such
	// as the Sales Analyzer's background profile-update calls.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates how many tokens messages would consume, used to
	// keep the rendered prompt (page context + history) under budget.
	CountTokens(messages []types.Message) (int, error)

	// Capabilities describes what the underlying model supports.
	Capabilities() types.ModelCapabilities
}
