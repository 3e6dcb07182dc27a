// Package action implements C5, the Action Executor: the eight operations
// that actually move, highlight, and read the host page in response to a
// resolved navigation intent. Every operation is registered on a
// [ToolHost] as an MCP-style tool (typed JSON args/result), grounded on the
// teacher's mcphost builtin-tool dispatch, so the Agent Response Parser
// calls through one typed, budget-aware surface; the Navigation Agent calls
// the Executor methods directly.
package action

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/salesagent/runtime/internal/browserpage"
	"github.com/salesagent/runtime/internal/elementfinder"
	"github.com/salesagent/runtime/internal/observe"
	"github.com/salesagent/runtime/pkg/types"
)

// comparePalette is the 3-color palette compareElements assigns per index
// (spec.md §4.5), cycling if more than 3 elements are compared.
var comparePalette = []string{"#6366f1", "#ec4899", "#10b981"}

// Executor drives one host page's DOM through [browserpage.Page], resolving
// free-text element descriptions via [elementfinder.Finder].
type Executor struct {
	page   *browserpage.Page
	finder *elementfinder.Finder
	host   *ToolHost

	mu  sync.RWMutex
	pc  *types.PageContext
}

// NewExecutor builds an Executor bound to page and finder, registering all
// eight operations on a fresh [ToolHost].
func NewExecutor(page *browserpage.Page, finder *elementfinder.Finder) *Executor {
	e := &Executor{page: page, finder: finder, host: NewToolHost()}
	e.registerTools()
	return e
}

// Host returns the tool-call dispatch surface for this Executor.
func (e *Executor) Host() *ToolHost { return e.host }

// SetPageContext updates the Page Context the tool-call dispatch surface
// resolves element descriptions against. Direct Executor method calls
// always take an explicit pc argument instead; this setter only backs the
// [ToolHost] path, where tool args arrive as plain JSON with no room for a
// live Go pointer (mirrors the Navigation Agent's own mutable pageContext
// handle, spec.md §4.6).
func (e *Executor) SetPageContext(pc *types.PageContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pc = pc
}

func (e *Executor) currentPageContext() *types.PageContext {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pc
}

func fail(err string) *types.ActionResult {
	return &types.ActionResult{Success: false, Error: err}
}

// recordTool reports one tool invocation's latency and outcome to the
// default [observe.Metrics] instance, treating both a Go error and a
// successfully-decoded but Success:false result as a failure.
func recordTool(ctx context.Context, tool string, start time.Time, res *types.ActionResult, err error) {
	status := "ok"
	if err != nil || (res != nil && !res.Success) {
		status = "error"
	}
	observe.DefaultMetrics().RecordToolExecution(ctx, tool, time.Since(start), status)
}

// ScrollToSection smooth-scrolls id into view, or reports "Section not
// found" per spec.md §4.5.
func (e *Executor) ScrollToSection(ctx context.Context, id string) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "scroll_to_section", start, res, err) }()
	script := `(id) => {
  const el = document.getElementById(id) || document.querySelector('#' + id);
  if (!el) return { success: false, error: 'Section not found' };
  el.scrollIntoView({ behavior: 'smooth', block: 'start' });
  return { success: true };
}`
	return e.evalActionResult(script, id)
}

// HighlightElement applies a glow + 1.02x scale to selector, restoring the
// original inline style after durationMs (default 2000ms per spec.md §4.5).
func (e *Executor) HighlightElement(ctx context.Context, selector string, durationMs int) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "highlight_element", start, res, err) }()
	if durationMs <= 0 {
		durationMs = 2000
	}
	args, err := styleArgs(selector, glowStyle(1.02, nil), durationMs)
	if err != nil {
		return nil, err
	}
	return e.evalActionResult(applyAndRestoreScript, args)
}

// PulseCTA toggles a 3-iteration, 1s-keyframe pulse class on selector for 3s
// total (spec.md §4.5).
func (e *Executor) PulseCTA(ctx context.Context, selector string) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "pulse_cta", start, res, err) }()
	if _, err := e.page.Evaluate(ensurePulseStylesheetScript, nil); err != nil {
		return nil, fmt.Errorf("action: inject pulse stylesheet: %w", err)
	}
	return e.evalActionResult(pulseClassScript, []any{selector, 3000})
}

// NavigateToElement resolves description via [elementfinder.Finder],
// scrolls it into view (block:center), and reports whether it ended up
// visible in the viewport.
func (e *Executor) NavigateToElement(ctx context.Context, description string, pc *types.PageContext, smooth bool) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "navigate_to_element", start, res, err) }()
	ref, err := e.finder.Find(e.page, description, pc)
	if err != nil {
		return nil, fmt.Errorf("action: resolve %q: %w", description, err)
	}
	if ref == nil {
		return fail("could not find a matching element"), nil
	}

	behavior := "auto"
	if smooth {
		behavior = "smooth"
	}
	script := `(args) => {
  const [selector, behavior] = args;
  const el = document.querySelector(selector);
  if (!el) return { success: false, error: 'Element not found' };
  el.scrollIntoView({ behavior, block: 'center' });
  const r = el.getBoundingClientRect();
  const visible = r.top >= 0 && r.left >= 0 &&
    r.bottom <= (window.innerHeight || document.documentElement.clientHeight) &&
    r.right <= (window.innerWidth || document.documentElement.clientWidth);
  return { success: true, isVisible: visible };
}`
	result, err := e.evalActionResult(script, []any{ref.Selector, behavior})
	if err != nil {
		return nil, err
	}
	result.Element = *ref
	return result, nil
}

// CompareElements resolves each description via C4, assigns a per-index
// color from [comparePalette], applies glow+outline+1.03x scale to each,
// and restores every one of them exactly at durationMs (default 3000ms).
func (e *Executor) CompareElements(ctx context.Context, descriptions []string, pc *types.PageContext, durationMs int) (results []*types.ActionResult, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		} else {
			for _, r := range results {
				if !r.Success {
					status = "error"
					break
				}
			}
		}
		observe.DefaultMetrics().RecordToolExecution(ctx, "compare_elements", time.Since(start), status)
	}()
	if durationMs <= 0 {
		durationMs = 3000
	}
	results = make([]*types.ActionResult, 0, len(descriptions))
	for i, desc := range descriptions {
		ref, err := e.finder.Find(e.page, desc, pc)
		if err != nil {
			return nil, fmt.Errorf("action: resolve %q: %w", desc, err)
		}
		if ref == nil {
			results = append(results, fail("could not find a matching element"))
			continue
		}
		color := comparePalette[i%len(comparePalette)]
		style := glowStyle(1.03, map[string]string{
			"outline": "3px solid " + color,
		})
		args, err := styleArgs(ref.Selector, style, durationMs)
		if err != nil {
			return nil, err
		}
		res, err := e.evalActionResult(applyAndRestoreScript, args)
		if err != nil {
			return nil, err
		}
		res.Element = *ref
		results = append(results, res)
	}
	return results, nil
}

// ReadElementContent resolves description via C4 and returns the resolved
// element's cleaned (whitespace-collapsed) text content.
func (e *Executor) ReadElementContent(ctx context.Context, description string, pc *types.PageContext) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "read_element_content", start, res, err) }()
	ref, err := e.finder.Find(e.page, description, pc)
	if err != nil {
		return nil, fmt.Errorf("action: resolve %q: %w", description, err)
	}
	if ref == nil {
		return fail("could not find a matching element"), nil
	}
	text, err := e.page.Raw().Locator(ref.Selector).InnerText()
	if err != nil {
		return nil, fmt.Errorf("action: read content of %q: %w", ref.Selector, err)
	}
	return &types.ActionResult{Success: true, Content: cleanText(text), Element: *ref}, nil
}

// ClickElement resolves description via C4, requires the element be a
// button/anchor/role=button/onclick-carrying node, scrolls it to center,
// and clicks it after a 500ms settle delay (spec.md §4.5).
func (e *Executor) ClickElement(ctx context.Context, description string, pc *types.PageContext) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "click_element", start, res, err) }()
	ref, err := e.finder.Find(e.page, description, pc)
	if err != nil {
		return nil, fmt.Errorf("action: resolve %q: %w", description, err)
	}
	if ref == nil {
		return fail("could not find a matching element"), nil
	}

	locator := e.page.Raw().Locator(ref.Selector)
	clickable, err := isClickable(locator)
	if err != nil {
		return nil, fmt.Errorf("action: inspect %q: %w", ref.Selector, err)
	}
	if !clickable {
		return fail("resolved element is not clickable"), nil
	}

	if err := locator.ScrollIntoViewIfNeeded(); err != nil {
		return nil, fmt.Errorf("action: scroll %q into view: %w", ref.Selector, err)
	}

	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := locator.Click(); err != nil {
		return nil, fmt.Errorf("action: click %q: %w", ref.Selector, err)
	}
	return &types.ActionResult{Success: true, Element: *ref}, nil
}

// FocusElement scrolls description into view, waits 600ms, then applies a
// strong glow + 1.05x scale + raised z-index, restoring at durationMs
// (default 2500ms) measured from the start of the call.
func (e *Executor) FocusElement(ctx context.Context, description string, pc *types.PageContext, durationMs int) (res *types.ActionResult, err error) {
	start := time.Now()
	defer func() { recordTool(ctx, "focus_element", start, res, err) }()
	if durationMs <= 0 {
		durationMs = 2500
	}
	ref, err := e.finder.Find(e.page, description, pc)
	if err != nil {
		return nil, fmt.Errorf("action: resolve %q: %w", description, err)
	}
	if ref == nil {
		return fail("could not find a matching element"), nil
	}

	locator := e.page.Raw().Locator(ref.Selector)
	if err := locator.ScrollIntoViewIfNeeded(); err != nil {
		return nil, fmt.Errorf("action: scroll %q into view: %w", ref.Selector, err)
	}

	const settleMs = 600
	select {
	case <-time.After(settleMs * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	style := glowStyle(1.05, map[string]string{
		"boxShadow": "0 0 30px 10px rgba(99,102,241,0.85)",
		"zIndex":    "9999",
	})
	remaining := durationMs - settleMs
	if remaining < 0 {
		remaining = 0
	}
	args, err := styleArgs(ref.Selector, style, remaining)
	if err != nil {
		return nil, err
	}
	result, err := e.evalActionResult(applyAndRestoreScript, args)
	if err != nil {
		return nil, err
	}
	result.Element = *ref
	return result, nil
}

// evalActionResult runs script with arg and decodes its returned object
// into a [types.ActionResult].
func (e *Executor) evalActionResult(script string, arg any) (*types.ActionResult, error) {
	raw, err := e.page.Evaluate(script, arg)
	if err != nil {
		return nil, fmt.Errorf("action: evaluate: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("action: marshal eval result: %w", err)
	}
	var result types.ActionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("action: decode eval result: %w", err)
	}
	return &result, nil
}

func isClickable(locator playwright.Locator) (bool, error) {
	tag, err := locator.Evaluate("el => el.tagName.toLowerCase()", nil)
	if err != nil {
		return false, err
	}
	if t, _ := tag.(string); t == "button" || t == "a" {
		return true, nil
	}
	role, err := locator.GetAttribute("role")
	if err == nil && strings.EqualFold(role, "button") {
		return true, nil
	}
	onclick, err := locator.GetAttribute("onclick")
	if err == nil && onclick != "" {
		return true, nil
	}
	return false, nil
}

func cleanText(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
