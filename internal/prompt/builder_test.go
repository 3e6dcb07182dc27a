package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestBuilder_AssembleGathersAllInputs(t *testing.T) {
	t.Parallel()
	b := NewBuilder(
		func(ctx context.Context) (*types.PageContext, error) {
			return &types.PageContext{Summary: "test page"}, nil
		},
		func(ctx context.Context) (types.Stage, error) { return types.StageDiscovery, nil },
		func(ctx context.Context) (*types.UserProfile, error) {
			return &types.UserProfile{Type: types.ProfileBuyer, Confidence: 0.9}, nil
		},
		nil,
	)

	got, err := b.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if !strings.Contains(got, "test page") {
		t.Error("expected page context summary in assembled prompt")
	}
	if !strings.Contains(got, "## Conversation Stage") {
		t.Error("expected stage section in assembled prompt")
	}
	if !strings.Contains(got, "## Visitor Profile") {
		t.Error("expected profile section in assembled prompt")
	}
}

func TestBuilder_AssembleReturnsErrorFromAnyFetch(t *testing.T) {
	t.Parallel()
	b := NewBuilder(
		func(ctx context.Context) (*types.PageContext, error) { return nil, errors.New("boom") },
		nil, nil, nil,
	)

	if _, err := b.Assemble(context.Background()); err == nil {
		t.Error("expected error to propagate from a failing fetch")
	}
}

func TestBuilder_AssembleWithNilOptionalSourcesOmitsSections(t *testing.T) {
	t.Parallel()
	b := NewBuilder(
		func(ctx context.Context) (*types.PageContext, error) { return nil, nil },
		nil, nil, nil,
	)

	got, err := b.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if strings.Contains(got, "## Conversation Stage") || strings.Contains(got, "## Visitor Profile") {
		t.Errorf("expected nil sources to omit their sections, got:\n%s", got)
	}
}
