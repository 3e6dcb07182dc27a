// Package navigation implements C6, the Navigation Agent: it classifies a
// user utterance (C3), plans an ordered action sequence from the result,
// drives the Action Executor (C5) through that sequence, and builds the
// user-facing response — the algorithm of spec.md §4.6 unchanged, grounded
// end-to-end on the teacher's UtteranceBuffer-shaped bounded history log.
package navigation

import (
	"context"
	"time"

	"github.com/salesagent/runtime/internal/action"
	"github.com/salesagent/runtime/internal/intent"
	"github.com/salesagent/runtime/pkg/types"
)

// interActionDelay is the pause between successive plan steps when a plan
// has more than one action (spec.md §4.6 step 3), giving the highlight/
// scroll effect from the previous step time to register visually before
// the next one starts.
const interActionDelay = 400 * time.Millisecond

// Result is the outcome of one navigate() call.
type Result struct {
	Success    bool
	Response   string
	Suggestion string
	Intent     types.Intent
	Plan       types.ActionPlan
	Results    []*types.ActionResult
}

// Agent owns a mutable Page Context handle and a history log, and drives
// parse→plan→execute→respond for each incoming utterance (spec.md §4.6).
type Agent struct {
	executor *action.Executor
	parser   *intent.Parser
	history  *History

	pc *types.PageContext
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithHistory overrides the default-sized History.
func WithHistory(h *History) Option {
	return func(a *Agent) { a.history = h }
}

// NewAgent builds a Navigation Agent bound to executor and parser.
func NewAgent(executor *action.Executor, parser *intent.Parser, opts ...Option) *Agent {
	a := &Agent{
		executor: executor,
		parser:   parser,
		history:  NewHistory(0, 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UpdateContext installs a freshly-extracted Page Context as the current
// handle both the Agent and the Executor resolve descriptions against.
func (a *Agent) UpdateContext(pc *types.PageContext) {
	a.pc = pc
	a.executor.SetPageContext(pc)
}

// History returns the Agent's bounded navigate() history log.
func (a *Agent) History() *History { return a.history }

// Navigate runs the full parse→plan→execute→respond pipeline for one user
// utterance (spec.md §4.6).
func (a *Agent) Navigate(ctx context.Context, utterance string) *Result {
	parsed := a.parser.Parse(utterance, a.pc)

	if !parsed.IsNavigationRequest() {
		result := &Result{Success: false, Intent: parsed, Suggestion: buildSuggestion(a.pc)}
		a.history.Add(HistoryEntry{Utterance: utterance, Intent: parsed, Succeeded: false, At: time.Now()})
		return result
	}

	plan := planActions(parsed)
	results := a.execute(ctx, plan)

	anySucceeded := false
	for _, r := range results {
		if r != nil && r.Success {
			anySucceeded = true
			break
		}
	}

	result := &Result{
		Success:  anySucceeded,
		Response: buildResponse(parsed, plan, results, a.pc),
		Intent:   parsed,
		Plan:     plan,
		Results:  results,
	}
	a.history.Add(HistoryEntry{Utterance: utterance, Intent: parsed, Succeeded: anySucceeded, At: time.Now()})
	return result
}

// execute runs plan in order, pausing interActionDelay between steps when
// there is more than one, dispatching each to the Action Executor. A
// per-action error is caught and recorded as a nil result rather than
// aborting the remaining steps (spec.md §4.6 step 3).
func (a *Agent) execute(ctx context.Context, plan types.ActionPlan) []*types.ActionResult {
	results := make([]*types.ActionResult, len(plan))
	for i, act := range plan {
		if i > 0 && len(plan) > 1 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(interActionDelay):
			}
		}
		results[i] = a.dispatch(ctx, act)
	}
	return results
}

// dispatch runs one action against the Executor, translating an executor
// error into a nil result (the catch-and-continue semantics of spec.md
// §4.6 step 3 — a failed step never halts the plan).
func (a *Agent) dispatch(ctx context.Context, act types.Action) *types.ActionResult {
	desc := describe(act)

	var (
		r   *types.ActionResult
		err error
	)
	switch act.Type {
	case types.ActionNavigate:
		r, err = a.executor.NavigateToElement(ctx, desc, a.pc, true)
	case types.ActionFocus:
		r, err = a.executor.FocusElement(ctx, desc, a.pc, 0)
	case types.ActionRead:
		r, err = a.executor.ReadElementContent(ctx, desc, a.pc)
	case types.ActionClick:
		r, err = a.executor.ClickElement(ctx, desc, a.pc)
	case types.ActionCompare:
		var rs []*types.ActionResult
		rs, err = a.executor.CompareElements(ctx, act.Entities, a.pc, 0)
		if err == nil && len(rs) > 0 {
			r = rs[0]
		}
	default:
		return &types.ActionResult{Success: false, Error: "unsupported action type: " + string(act.Type)}
	}

	if err != nil {
		return &types.ActionResult{Success: false, Error: err.Error()}
	}
	return r
}
