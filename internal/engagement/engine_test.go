package engagement

import (
	"testing"
	"time"

	"github.com/salesagent/runtime/internal/eventbus"
	"github.com/salesagent/runtime/pkg/types"
)

func TestEngine_EvaluateFiresFirstMatchingRuleOnly(t *testing.T) {
	t.Parallel()
	out := eventbus.New()
	var fired []string
	out.Subscribe(EventFired, func(e eventbus.Event) {
		fired = append(fired, e.Data.(FiredPayload).RuleID)
	})

	rules := []Rule{
		{ID: "a", Priority: PriorityHigh, Condition: Condition{ScrollDepthAtLeast: ptr(0.1)}},
		{ID: "b", Priority: PriorityHigh, Condition: Condition{ScrollDepthAtLeast: ptr(0.1)}},
	}
	e := New(rules, out)
	e.Evaluate(types.Behavior{MaxScrollDepth: 0.5})

	if len(fired) != 1 || fired[0] != "a" {
		t.Errorf("fired = %v, want [a]", fired)
	}
}

func TestEngine_CooldownBlocksImmediateRefire(t *testing.T) {
	t.Parallel()
	out := eventbus.New()
	var fired []string
	out.Subscribe(EventFired, func(e eventbus.Event) {
		fired = append(fired, e.Data.(FiredPayload).RuleID)
	})

	rules := []Rule{
		{ID: "a", Priority: PriorityHigh, CooldownMs: 60_000, Condition: Condition{ScrollDepthAtLeast: ptr(0.1)}},
	}
	e := New(rules, out)
	e.Evaluate(types.Behavior{MaxScrollDepth: 0.5})
	e.Evaluate(types.Behavior{MaxScrollDepth: 0.9})

	if len(fired) != 1 {
		t.Errorf("fired %d times, want 1 (cooldown should block the second)", len(fired))
	}
}

func TestEngine_DelayedFireEmitsAfterDelay(t *testing.T) {
	t.Parallel()
	out := eventbus.New()
	done := make(chan FiredPayload, 1)
	out.Subscribe(EventFired, func(e eventbus.Event) {
		done <- e.Data.(FiredPayload)
	})

	rules := []Rule{
		{ID: "a", Priority: PriorityHigh, DelayMs: 10, Message: "hi", Condition: Condition{ExitIntent: ptr(true)}},
	}
	e := New(rules, out)
	e.Evaluate(types.Behavior{ExitIntentDetected: true})

	select {
	case payload := <-done:
		if payload.RuleID != "a" || payload.Message != "hi" {
			t.Errorf("payload = %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected delayed fire within 1s")
	}
}

func TestEngine_NoMatchFiresNothing(t *testing.T) {
	t.Parallel()
	out := eventbus.New()
	fired := false
	out.Subscribe(EventFired, func(e eventbus.Event) { fired = true })

	rules := []Rule{{ID: "a", Priority: PriorityHigh, Condition: Condition{ExitIntent: ptr(true)}}}
	e := New(rules, out)
	e.Evaluate(types.Behavior{ExitIntentDetected: false})

	if fired {
		t.Error("expected no fire")
	}
}
