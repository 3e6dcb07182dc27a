package action

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/salesagent/runtime/pkg/types"
)

// Handler is an in-process tool implementation: JSON args in, JSON-able
// result out. Every Action Executor operation is registered as one of
// these, grounded on the teacher's RegisterBuiltin/executeBuiltin shape in
// mcphost.Host — minus the external stdio/streamable-HTTP server machinery,
// which this runtime never needs since every tool is local.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type toolEntry struct {
	def     types.ToolDefinition
	handler Handler
	tier    Tier
}

// ToolResult is the outcome of one ToolHost.ExecuteTool call.
type ToolResult struct {
	Content    any
	IsError    bool
	Error      string
	DurationMs int64
}

// ToolHost is the typed, budget-aware dispatch surface the Agent Response
// Parser (C12) calls through instead of invoking Action Executor methods
// directly, grounded on mcphost.Host. The Navigation Agent (C6) calls the
// Executor methods directly and does not go through it.
type ToolHost struct {
	mu       sync.RWMutex
	tools    map[string]toolEntry
	enforcer BudgetEnforcer
}

// NewToolHost returns an empty, ready-to-use ToolHost.
func NewToolHost() *ToolHost {
	return &ToolHost{tools: make(map[string]toolEntry)}
}

// RegisterBuiltin registers an in-process tool. def.EstimatedDurationMs
// determines its budget tier.
func (h *ToolHost) RegisterBuiltin(def types.ToolDefinition, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tools[def.Name] = toolEntry{def: def, handler: handler, tier: tierFromDeclaredMs(def.EstimatedDurationMs)}
}

// AvailableTools returns every tool definition whose tier is within maxTier,
// fastest first.
func (h *ToolHost) AvailableTools(maxTier Tier) []types.ToolDefinition {
	h.mu.RLock()
	entries := make([]toolEntry, 0, len(h.tools))
	for _, e := range h.tools {
		entries = append(entries, e)
	}
	h.mu.RUnlock()
	return h.enforcer.FilterTools(entries, maxTier)
}

// ExecuteTool runs the named tool with JSON-encoded args and returns its
// result. A non-nil *ToolResult with IsError=true signals an
// application-level failure (e.g. "Section not found"); a non-nil error is
// reserved for the tool name not existing at all.
func (h *ToolHost) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error) {
	h.mu.RLock()
	entry, ok := h.tools[name]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("action: tool %q not registered", name)
	}

	start := time.Now()
	content, err := entry.handler(ctx, args)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		return &ToolResult{IsError: true, Error: err.Error(), DurationMs: duration}, nil
	}
	return &ToolResult{Content: content, DurationMs: duration}, nil
}
