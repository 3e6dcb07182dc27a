package action

import (
	"encoding/json"
	"fmt"
)

// maxEffectMs is the hard ceiling spec.md §4.5 imposes: "No effect may
// outlive 10 s."
const maxEffectMs = 10000

func capDuration(ms int) int {
	if ms <= 0 {
		return 0
	}
	if ms > maxEffectMs {
		return maxEffectMs
	}
	return ms
}

// applyAndRestoreScript snapshots an element's inline style, applies a set
// of CSS properties, and schedules a restore via a browser-side setTimeout.
// The timer lives in the page, not in this process, so a highlight/focus/
// compare effect keeps running to completion even if the Go call that
// triggered it has already returned — exactly the "scheduled restorations
// use a timer" contract spec.md §4.5 describes.
const applyAndRestoreScript = `(args) => {
  const [selector, styleJSON, durationMs] = args;
  const el = document.querySelector(selector);
  if (!el) return { success: false, error: 'Element not found' };
  const prev = el.style.cssText;
  const props = JSON.parse(styleJSON);
  Object.assign(el.style, props);
  setTimeout(() => { el.style.cssText = prev; }, durationMs);
  return { success: true };
}`

// styleArgs marshals the [selector, styleJSON, durationMs] tuple
// applyAndRestoreScript expects.
func styleArgs(selector string, style map[string]string, durationMs int) ([]any, error) {
	styleJSON, err := json.Marshal(style)
	if err != nil {
		return nil, fmt.Errorf("action: marshal style: %w", err)
	}
	return []any{selector, string(styleJSON), capDuration(durationMs)}, nil
}

// glowStyle returns the inline-style set for a "glow" visual effect scaled
// by factor, per spec.md §4.5's highlight/compare/focus operations.
func glowStyle(factor float64, extra map[string]string) map[string]string {
	style := map[string]string{
		"boxShadow":  "0 0 20px 6px rgba(99,102,241,0.65)",
		"transform":  fmt.Sprintf("scale(%.2f)", factor),
		"transition": "box-shadow 150ms ease-out, transform 150ms ease-out",
	}
	for k, v := range extra {
		style[k] = v
	}
	return style
}

// pulseClassScript toggles a CSS class for durationMs, relying on a
// stylesheet rule (injected once via [ensurePulseStylesheetScript]) for the
// actual 1s-keyframe pulse animation, per spec.md §4.5's pulseCTA contract.
const pulseClassScript = `(args) => {
  const [selector, durationMs] = args;
  const el = document.querySelector(selector);
  if (!el) return { success: false, error: 'Element not found' };
  el.classList.add('salesagent-pulse-cta');
  setTimeout(() => { el.classList.remove('salesagent-pulse-cta'); }, durationMs);
  return { success: true };
}`

// ensurePulseStylesheetScript injects the pulse-cta keyframe rule once per
// page; calling it again is a harmless no-op (the id guards duplicate
// inserts).
const ensurePulseStylesheetScript = `() => {
  if (document.getElementById('salesagent-pulse-style')) return null;
  const style = document.createElement('style');
  style.id = 'salesagent-pulse-style';
  style.textContent = '@keyframes salesagent-pulse { 0%,100% { transform: scale(1); } 50% { transform: scale(1.05); } } .salesagent-pulse-cta { animation: salesagent-pulse 1s ease-in-out 3; }';
  document.head.appendChild(style);
  return null;
}`
