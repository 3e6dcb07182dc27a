package types

// Message is a single turn in an LLM-facing conversation history. It is the
// wire type exchanged with LLM providers, distinct from [Turn] which is the
// persisted, UI-facing conversation record.
type Message struct {
	// Role is one of "system", "user", "assistant", or "tool".
	Role string

	// Content is the text content of the message.
	Content string

	// ToolCalls contains any tool invocations requested by the assistant.
	ToolCalls []ToolCall

	// ToolCallID is set when Role is "tool", identifying which tool call this responds to.
	ToolCallID string
}

// ToolCall represents a tool/function invocation requested by the LLM, e.g. a
// navigate_to or highlight_element action (spec §6 agent response schema).
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a tool offered to an LLM. The Action Executor's
// allowed-action set (spec §4.5) is surfaced to the model as a list of these.
type ToolDefinition struct {
	Name                string
	Description         string
	Parameters          map[string]any
	EstimatedDurationMs int
	MaxDurationMs       int
	Idempotent          bool
	CacheableSeconds    int
}

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	ContextWindow       int
	MaxOutputTokens     int
	SupportsToolCalling bool
	SupportsVision      bool
	SupportsStreaming   bool
}
