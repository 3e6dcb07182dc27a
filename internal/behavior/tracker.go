// Package behavior implements C7, the Behavior Tracker: a per-session
// observer of how a visitor actually interacts with the host page (scroll
// depth, CTA hover/click, exit intent, section visibility), bridged in
// from the browser via a small injected listener script and surfaced to
// the rest of the runtime through an [eventbus.Bus].
//
// This is never a process-wide singleton: each embed session constructs its
// own Tracker, and Init, Reset, and Close are all idempotent so callers never
// need to guard against double-initialization themselves.
package behavior

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/salesagent/runtime/internal/browserpage"
	"github.com/salesagent/runtime/internal/eventbus"
	"github.com/salesagent/runtime/pkg/types"
)

// Event names published on the Tracker's Bus (spec.md §4.7).
const (
	EventScroll         = "scroll"
	EventMouseMove      = "mouse_move"
	EventExitIntent     = "exit_intent"
	EventCTAHover       = "cta_hover"
	EventCTAClick       = "cta_click"
	EventSectionVisible = "section_visible"
	EventTick           = "tick"
)

// ctaVerbs classifies an element's visible text as CTA-like (spec.md
// §4.7: "CTA classification by text verbs"). ctaClasses does the same by
// class name.
var (
	ctaVerbs = []string{
		"buy", "purchase", "sign up", "signup", "get started", "start free",
		"try", "subscribe", "join", "upgrade", "contact sales", "request demo",
		"book a demo", "start trial",
	}
	ctaClasses = []string{"btn-primary", "cta"}
)

const tickInterval = time.Second

// Tracker observes one embed session's page and maintains its
// [types.Behavior] snapshot.
type Tracker struct {
	page *browserpage.Page
	bus  *eventbus.Bus

	mu       sync.Mutex
	behavior types.Behavior
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

// New builds a Tracker bound to page, publishing to bus.
func New(page *browserpage.Page, bus *eventbus.Bus) *Tracker {
	return &Tracker{page: page, bus: bus}
}

// Init installs the browser-side listener bridge and starts the 1Hz
// timeOnPage timer. Calling Init again while already started is a no-op
// (spec.md §4.7: "idempotent").
func (t *Tracker) Init() error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil
	}
	now := time.Now()
	t.behavior = types.Behavior{SessionStartTime: now, LastActivityTime: now}
	t.started = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.mu.Unlock()

	if err := t.page.ExposeFunction(bridgeFunctionName, t.handleBrowserEvent); err != nil {
		return err
	}
	if _, err := t.page.Evaluate(bridgeScript, nil); err != nil {
		return err
	}

	go t.tick()
	return nil
}

// tick advances timeOnPage once per second until Close stops it.
func (t *Tracker) tick() {
	defer close(t.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			snap := t.mutate(func(b *types.Behavior) {
				b.TimeOnPage += tickInterval
			})
			t.bus.Publish(eventbus.Event{Name: EventTick, Snapshot: snap})
		}
	}
}

// Reset clears the behavior snapshot back to a fresh session, without
// touching whether the browser-side bridge is installed (idempotent,
// spec.md §4.7).
func (t *Tracker) Reset() {
	now := time.Now()
	t.mu.Lock()
	t.behavior = types.Behavior{SessionStartTime: now, LastActivityTime: now}
	t.mu.Unlock()
}

// Close stops the timeOnPage timer. Idempotent: closing a Tracker that
// was never started, or closing it twice, is a no-op.
func (t *Tracker) Close() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	stop := t.stop
	done := t.done
	t.started = false
	t.mu.Unlock()

	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
}

// Snapshot returns a copy of the current behavior state.
func (t *Tracker) Snapshot() types.Behavior {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.behavior
}

// AddListener subscribes fn to every future behavior event and returns a
// function that removes it (spec.md §4.7's `{addListener, removeListener}`
// contract, realized as [eventbus.Bus.Subscribe]'s return value).
func (t *Tracker) AddListener(eventName string, fn eventbus.Handler) (removeListener func()) {
	return t.bus.Subscribe(eventName, fn)
}

// mutate applies fn to the behavior snapshot under lock, stamps
// LastActivityTime, and returns the resulting snapshot for publishing.
func (t *Tracker) mutate(fn func(*types.Behavior)) types.Behavior {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.behavior)
	t.behavior.LastActivityTime = time.Now()
	return t.behavior
}

// handleBrowserEvent is exposed into the page as bridgeFunctionName; the
// injected bridge script calls it with (eventName string, dataJSON
// string) for every raw DOM event it observes.
func (t *Tracker) handleBrowserEvent(args ...any) any {
	if len(args) < 1 {
		return nil
	}
	name, _ := args[0].(string)

	var data map[string]any
	if len(args) > 1 {
		if raw, ok := args[1].(string); ok && raw != "" {
			_ = json.Unmarshal([]byte(raw), &data)
		}
	}

	switch name {
	case EventScroll:
		depth, _ := data["depth"].(float64)
		snap := t.mutate(func(b *types.Behavior) {
			b.ScrollDepth = depth
			if depth > b.MaxScrollDepth {
				b.MaxScrollDepth = depth
			}
		})
		t.bus.Publish(eventbus.Event{Name: name, Data: data, Snapshot: snap})

	case EventMouseMove:
		count, _ := data["count"].(float64)
		snap := t.mutate(func(b *types.Behavior) {
			b.MouseMovements += int(count)
		})
		t.bus.Publish(eventbus.Event{Name: name, Data: data, Snapshot: snap})

	case EventExitIntent:
		snap := t.mutate(func(b *types.Behavior) {
			b.ExitIntentDetected = true
		})
		t.bus.Publish(eventbus.Event{Name: name, Data: data, Snapshot: snap})

	case EventCTAHover, EventCTAClick:
		text, _ := data["text"].(string)
		classes, _ := data["classes"].(string)
		if !isCTA(text, classes) {
			return nil
		}
		snap := t.mutate(func(b *types.Behavior) {
			if name == EventCTAHover {
				b.CTAHovered++
			} else {
				b.CTAClicked++
			}
		})
		t.bus.Publish(eventbus.Event{Name: name, Data: data, Snapshot: snap})

	case EventSectionVisible:
		section, _ := data["section"].(string)
		snap := t.mutate(func(b *types.Behavior) {
			switch section {
			case "pricing":
				b.PricingViewed = true
			case "features":
				b.FeaturesViewed = true
			}
		})
		t.bus.Publish(eventbus.Event{Name: name, Data: data, Snapshot: snap})
	}
	return nil
}

// isCTA classifies an element as a call-to-action by its visible text
// (verb match) or its class list (spec.md §4.7).
func isCTA(text, classes string) bool {
	lowerText := strings.ToLower(text)
	for _, verb := range ctaVerbs {
		if strings.Contains(lowerText, verb) {
			return true
		}
	}
	lowerClasses := strings.ToLower(classes)
	for _, cls := range ctaClasses {
		if strings.Contains(lowerClasses, cls) {
			return true
		}
	}
	return false
}
