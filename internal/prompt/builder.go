// Package prompt assembles the system prompt injected into every sales-agent
// LLM call: a fixed identity/style preamble, the current conversation-flow
// stage, the inferred visitor profile (when confident), ground-truth page
// content, a section map, the directives the model may emit, and the
// response rules it must follow (spec.md §4.11).
//
// [FormatSystemPrompt] is a pure formatter; [Builder.Assemble] gathers its
// inputs — which may themselves involve lookups against live components —
// concurrently before handing them to the formatter, mirroring the
// concurrent hot-context assembly pattern used elsewhere in this codebase.
package prompt

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/salesagent/runtime/internal/sales"
	"github.com/salesagent/runtime/pkg/types"
)

// PageContextFunc returns the current Page Context, or nil if none has been
// extracted yet.
type PageContextFunc func(ctx context.Context) (*types.PageContext, error)

// StageFunc returns the conversation's current stage.
type StageFunc func(ctx context.Context) (types.Stage, error)

// ProfileFunc returns the inferred visitor profile, or nil if there isn't
// enough conversation history to build one yet.
type ProfileFunc func(ctx context.Context) (*types.UserProfile, error)

// ClosingFunc returns closing guidance, or nil outside the closing stage.
type ClosingFunc func(ctx context.Context) (*sales.ClosingPlan, error)

// Builder concurrently gathers the four prompt inputs from their respective
// components and assembles them into a system prompt string.
type Builder struct {
	pageContext PageContextFunc
	stage       StageFunc
	profile     ProfileFunc
	closing     ClosingFunc
	voiceMode   bool
}

// Option configures a [Builder].
type Option func(*Builder)

// WithVoiceMode toggles the stricter voice-mode response rules.
func WithVoiceMode(voiceMode bool) Option {
	return func(b *Builder) { b.voiceMode = voiceMode }
}

// NewBuilder constructs a [Builder] from its four input sources. Any of
// stage, profile, closing may be nil, in which case that section is always
// omitted; pageContext must be non-nil.
func NewBuilder(pageContext PageContextFunc, stage StageFunc, profile ProfileFunc, closing ClosingFunc, opts ...Option) *Builder {
	b := &Builder{pageContext: pageContext, stage: stage, profile: profile, closing: closing}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Assemble gathers all four prompt inputs concurrently and renders the
// resulting system prompt via [FormatSystemPrompt]. If any fetch returns an
// error, assembly is aborted and that error is returned.
func (b *Builder) Assemble(ctx context.Context) (string, error) {
	var (
		pc      *types.PageContext
		stage   types.Stage
		profile *types.UserProfile
		closing *sales.ClosingPlan
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if b.pageContext == nil {
			return nil
		}
		got, err := b.pageContext(egCtx)
		if err != nil {
			return fmt.Errorf("prompt: fetch page context: %w", err)
		}
		pc = got
		return nil
	})

	eg.Go(func() error {
		if b.stage == nil {
			return nil
		}
		got, err := b.stage(egCtx)
		if err != nil {
			return fmt.Errorf("prompt: fetch stage: %w", err)
		}
		stage = got
		return nil
	})

	eg.Go(func() error {
		if b.profile == nil {
			return nil
		}
		got, err := b.profile(egCtx)
		if err != nil {
			return fmt.Errorf("prompt: fetch profile: %w", err)
		}
		profile = got
		return nil
	})

	eg.Go(func() error {
		if b.closing == nil {
			return nil
		}
		got, err := b.closing(egCtx)
		if err != nil {
			return fmt.Errorf("prompt: fetch closing guidance: %w", err)
		}
		closing = got
		return nil
	})

	if err := eg.Wait(); err != nil {
		return "", err
	}

	return FormatSystemPrompt(Inputs{
		PageContext: pc,
		Stage:       stage,
		Profile:     profile,
		Closing:     closing,
		VoiceMode:   b.voiceMode,
	}), nil
}
