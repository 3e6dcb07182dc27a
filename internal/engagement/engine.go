// Package engagement implements C8, Engagement Triggers: a priority-
// ordered, cooldown-gated rule table evaluated against the Behavior
// Tracker's (C7) snapshots, firing at most one proactive message per
// evaluation cycle. The rule table itself is a YAML data file loaded
// through the same [config.Registry]-adjacent loader pattern the rest of
// the runtime's data-driven tables use, directly grounded on the teacher's
// `mcphost` tier/budget selection (evaluate a priority-ordered list,
// first match wins).
package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/salesagent/runtime/internal/behavior"
	"github.com/salesagent/runtime/internal/eventbus"
	"github.com/salesagent/runtime/internal/observe"
	"github.com/salesagent/runtime/pkg/types"
)

// pollInterval is the fallback evaluation cadence independent of any
// individual behavior event (spec.md §4.8: "every 5s").
const pollInterval = 5 * time.Second

// EventFired is published on an Engine's output bus when a rule actually fires
// (after its configured delay has elapsed).
const EventFired = "trigger_fired"

// FiredPayload is the Data carried by an [EventFired] event.
type FiredPayload struct {
	RuleID  string
	Message string
}

// behaviorEventNames is every event name the Behavior Tracker publishes
// that should re-evaluate the rule table. There is no wildcard
// subscription on [eventbus.Bus], so the Engine subscribes to each by
// name.
var behaviorEventNames = []string{
	behavior.EventScroll,
	behavior.EventMouseMove,
	behavior.EventExitIntent,
	behavior.EventCTAHover,
	behavior.EventCTAClick,
	behavior.EventSectionVisible,
	behavior.EventTick,
}

// Engine evaluates a priority-ordered rule table against behavior
// snapshots and emits at most one fire per evaluation cycle.
type Engine struct {
	out *eventbus.Bus

	mu        sync.Mutex
	rules     []Rule
	lastFired map[string]time.Time

	stop         chan struct{}
	unsubscribes []func()
}

// New builds an Engine over rules (already priority-sorted by
// [LoadRules]/[DecodeRules]), publishing fires onto out.
func New(rules []Rule, out *eventbus.Bus) *Engine {
	return &Engine{
		out:       out,
		rules:     rules,
		lastFired: make(map[string]time.Time),
	}
}

// Start subscribes to tracker's behavior events and begins the 5s poll
// loop. Calling Start on an already-started Engine is a no-op.
func (e *Engine) Start(tracker *behavior.Tracker) {
	e.mu.Lock()
	if e.stop != nil {
		e.mu.Unlock()
		return
	}
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	for _, name := range behaviorEventNames {
		unsub := tracker.AddListener(name, e.onEvent)
		e.mu.Lock()
		e.unsubscribes = append(e.unsubscribes, unsub)
		e.mu.Unlock()
	}

	go e.pollLoop(stop, tracker)
}

// Stop unsubscribes from the tracker and stops the poll loop. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	stop := e.stop
	e.stop = nil
	unsubs := e.unsubscribes
	e.unsubscribes = nil
	e.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	for _, unsub := range unsubs {
		unsub()
	}
}

func (e *Engine) pollLoop(stop chan struct{}, tracker *behavior.Tracker) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.Evaluate(tracker.Snapshot())
		}
	}
}

// onEvent re-evaluates the rule table against the snapshot carried by a
// Behavior Tracker event.
func (e *Engine) onEvent(ev eventbus.Event) {
	if b, ok := ev.Snapshot.(types.Behavior); ok {
		e.Evaluate(b)
	}
}

// Evaluate walks the rule table in priority order and fires the first
// unfired-or-past-cooldown rule whose condition matches b (spec.md §4.8).
// Only one rule fires per call.
func (e *Engine) Evaluate(b types.Behavior) {
	e.mu.Lock()
	var fire *Rule
	now := time.Now()
	for i := range e.rules {
		rule := &e.rules[i]
		if last, ok := e.lastFired[rule.ID]; ok {
			cooldown := time.Duration(rule.CooldownMs) * time.Millisecond
			if now.Sub(last) < cooldown {
				continue
			}
		}
		if !rule.Condition.Matches(b) {
			continue
		}
		e.lastFired[rule.ID] = now
		fire = rule
		break
	}
	e.mu.Unlock()

	if fire == nil {
		return
	}
	e.scheduleFire(*fire)
}

// scheduleFire emits fire's payload after its configured delay, honoring
// the "delay_ms" field independently of the cooldown bookkeeping above
// (which is stamped immediately, at match time, so a second rapid
// evaluation can't double-fire the same rule while its delay is pending).
func (e *Engine) scheduleFire(rule Rule) {
	payload := FiredPayload{RuleID: rule.ID, Message: rule.Message}
	if rule.DelayMs <= 0 {
		e.out.Publish(eventbus.Event{Name: EventFired, Data: payload})
		observe.DefaultMetrics().RecordEngagementTrigger(context.Background(), rule.ID)
		return
	}
	go func() {
		time.Sleep(time.Duration(rule.DelayMs) * time.Millisecond)
		e.out.Publish(eventbus.Event{Name: EventFired, Data: payload})
		observe.DefaultMetrics().RecordEngagementTrigger(context.Background(), rule.ID)
	}()
}
