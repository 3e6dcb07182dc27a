package agentresponse

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/salesagent/runtime/internal/action"
)

// toolNames maps each recognized [Action] to the [action.ToolHost] tool
// name it dispatches through — the JSON-args path, as opposed to the
// Navigation Agent's direct Executor method calls (C6 knows its own intent
// shape; an LLM-authored directive only knows tool names).
var toolNames = map[Action]string{
	ActionScroll:    "scroll_to_section",
	ActionHighlight: "highlight_element",
	ActionPulseCTA:  "pulse_cta",
}

// DispatchResult is the outcome of [Dispatch]: the prose text to show the
// visitor plus the tool result for every directive that was dispatched.
type DispatchResult struct {
	Text    string
	Results []*action.ToolResult
}

// Dispatch parses raw assistant output and runs every extracted directive
// through host in order, returning the prose text alongside each
// directive's tool result. A directive whose tool call itself fails is
// recorded (IsError/Error set on its ToolResult) rather than aborting the
// remaining directives — action directives are independent page effects,
// not a dependent plan.
func Dispatch(ctx context.Context, host *action.ToolHost, raw string) (DispatchResult, error) {
	parsed := Parse(raw)

	result := DispatchResult{Text: parsed.Text}
	for _, d := range parsed.Directives {
		toolResult, err := dispatchOne(ctx, host, d)
		if err != nil {
			slog.Warn("agentresponse: directive dispatch failed", "action", d.Action, "err", err)
			continue
		}
		result.Results = append(result.Results, toolResult)
	}
	return result, nil
}

// dispatchOne encodes d's fields as the matching tool's JSON args and runs
// it through host. Parse only ever returns directives for an action present
// in toolNames, so the name lookup cannot miss here.
func dispatchOne(ctx context.Context, host *action.ToolHost, d Directive) (*action.ToolResult, error) {
	name := toolNames[d.Action]

	var args []byte
	var err error
	switch d.Action {
	case ActionScroll:
		args, err = json.Marshal(struct {
			ID string `json:"id"`
		}{ID: d.Target})
	case ActionHighlight:
		args, err = json.Marshal(struct {
			Selector   string `json:"selector"`
			DurationMs int    `json:"durationMs"`
		}{Selector: d.Selector, DurationMs: d.DurationMs})
	case ActionPulseCTA:
		args, err = json.Marshal(struct {
			Selector string `json:"selector"`
		}{Selector: d.Selector})
	}
	if err != nil {
		return nil, err
	}

	return host.ExecuteTool(ctx, name, args)
}
