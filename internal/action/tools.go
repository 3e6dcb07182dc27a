package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/salesagent/runtime/pkg/types"
)

// registerTools exposes every operation as an MCP-style builtin tool so the
// Agent Response Parser's dispatcher can call them by name (the Navigation
// Agent calls the Executor methods directly). Each tool's tier follows its
// declared latency: most declare well under 500ms and land in [TierFast];
// click_element and focus_element declare 600ms and 700ms and land in
// [TierStandard].
func (e *Executor) registerTools() {
	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "scroll_to_section",
		Description:         "Smooth-scroll a page section into view by its id.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"id": map[string]any{"type": "string"}}, "required": []string{"id"}},
		EstimatedDurationMs: 50,
		Idempotent:          true,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode scroll_to_section args: %w", err)
		}
		return e.ScrollToSection(ctx, a.ID)
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "highlight_element",
		Description:         "Apply a temporary glow highlight to an element matched by CSS selector.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"selector": map[string]any{"type": "string"}, "durationMs": map[string]any{"type": "integer"}}, "required": []string{"selector"}},
		EstimatedDurationMs: 50,
		MaxDurationMs:       2000,
		Idempotent:          true,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Selector   string `json:"selector"`
			DurationMs int    `json:"durationMs"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode highlight_element args: %w", err)
		}
		return e.HighlightElement(ctx, a.Selector, a.DurationMs)
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "pulse_cta",
		Description:         "Pulse a call-to-action element for 3 seconds to draw attention to it.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"selector": map[string]any{"type": "string"}}, "required": []string{"selector"}},
		EstimatedDurationMs: 50,
		MaxDurationMs:       3000,
		Idempotent:          true,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Selector string `json:"selector"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode pulse_cta args: %w", err)
		}
		return e.PulseCTA(ctx, a.Selector)
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "navigate_to_element",
		Description:         "Resolve a free-text description to an element and scroll it into view.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"description": map[string]any{"type": "string"}, "smooth": map[string]any{"type": "boolean"}}, "required": []string{"description"}},
		EstimatedDurationMs: 80,
		Idempotent:          true,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Description string `json:"description"`
			Smooth      *bool  `json:"smooth"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode navigate_to_element args: %w", err)
		}
		smooth := true
		if a.Smooth != nil {
			smooth = *a.Smooth
		}
		return e.NavigateToElement(ctx, a.Description, e.currentPageContext(), smooth)
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "compare_elements",
		Description:         "Resolve and simultaneously highlight multiple elements with distinct colors for comparison.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"descriptions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, "durationMs": map[string]any{"type": "integer"}}, "required": []string{"descriptions"}},
		EstimatedDurationMs: 100,
		MaxDurationMs:       3000,
		Idempotent:          true,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Descriptions []string `json:"descriptions"`
			DurationMs   int      `json:"durationMs"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode compare_elements args: %w", err)
		}
		return e.CompareElements(ctx, a.Descriptions, e.currentPageContext(), a.DurationMs)
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "read_element_content",
		Description:         "Resolve a free-text description to an element and return its cleaned text content.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"description": map[string]any{"type": "string"}}, "required": []string{"description"}},
		EstimatedDurationMs: 80,
		Idempotent:          true,
		CacheableSeconds:    30,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Description string `json:"description"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode read_element_content args: %w", err)
		}
		return e.ReadElementContent(ctx, a.Description, e.currentPageContext())
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "click_element",
		Description:         "Resolve a free-text description to a clickable element and click it.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"description": map[string]any{"type": "string"}}, "required": []string{"description"}},
		EstimatedDurationMs: 600,
		MaxDurationMs:       1200,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Description string `json:"description"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode click_element args: %w", err)
		}
		return e.ClickElement(ctx, a.Description, e.currentPageContext())
	})

	e.host.RegisterBuiltin(types.ToolDefinition{
		Name:                "focus_element",
		Description:         "Scroll to and strongly highlight an element, raising it above surrounding content.",
		Parameters:          map[string]any{"type": "object", "properties": map[string]any{"description": map[string]any{"type": "string"}, "durationMs": map[string]any{"type": "integer"}}, "required": []string{"description"}},
		EstimatedDurationMs: 700,
		MaxDurationMs:       2500,
	}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Description string `json:"description"`
			DurationMs  int    `json:"durationMs"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("action: decode focus_element args: %w", err)
		}
		return e.FocusElement(ctx, a.Description, e.currentPageContext(), a.DurationMs)
	})
}
