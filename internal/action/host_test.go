package action

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestToolHost_RegisterAndExecute(t *testing.T) {
	t.Parallel()
	h := NewToolHost()
	h.RegisterBuiltin(types.ToolDefinition{Name: "echo", EstimatedDurationMs: 10}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a struct {
			Msg string `json:"msg"`
		}
		_ = json.Unmarshal(args, &a)
		return a.Msg, nil
	})

	result, err := h.ExecuteTool(context.Background(), "echo", json.RawMessage(`{"msg":"hi"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}
	if result.Content != "hi" {
		t.Errorf("Content = %v, want hi", result.Content)
	}
}

func TestToolHost_ExecuteUnknownTool(t *testing.T) {
	t.Parallel()
	h := NewToolHost()
	if _, err := h.ExecuteTool(context.Background(), "nonexistent", nil); err == nil {
		t.Error("expected an error for an unregistered tool name")
	}
}

func TestToolHost_HandlerErrorBecomesApplicationError(t *testing.T) {
	t.Parallel()
	h := NewToolHost()
	h.RegisterBuiltin(types.ToolDefinition{Name: "boom", EstimatedDurationMs: 10}, func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	result, err := h.ExecuteTool(context.Background(), "boom", nil)
	if err != nil {
		t.Fatalf("unexpected transport-level error: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError=true")
	}
}
