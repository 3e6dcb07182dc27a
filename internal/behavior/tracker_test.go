package behavior

import (
	"testing"
	"time"

	"github.com/salesagent/runtime/internal/eventbus"
)

func TestIsCTA_MatchesVerb(t *testing.T) {
	t.Parallel()
	if !isCTA("Start Free Trial", "") {
		t.Error("expected verb match")
	}
	if !isCTA("Learn more", "btn btn-primary") {
		t.Error("expected class match")
	}
	if isCTA("Home", "nav-link") {
		t.Error("expected no match")
	}
}

func newTestTracker() (*Tracker, *eventbus.Bus) {
	bus := eventbus.New()
	tr := &Tracker{bus: bus, started: true, stop: make(chan struct{}), done: make(chan struct{})}
	close(tr.done)
	return tr, bus
}

func TestHandleBrowserEvent_ScrollUpdatesMonotonicMax(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()

	tr.handleBrowserEvent("scroll", `{"depth":0.4}`)
	tr.handleBrowserEvent("scroll", `{"depth":0.2}`)
	tr.handleBrowserEvent("scroll", `{"depth":0.6}`)

	snap := tr.Snapshot()
	if snap.ScrollDepth != 0.6 {
		t.Errorf("ScrollDepth = %v, want 0.6 (most recent)", snap.ScrollDepth)
	}
	if snap.MaxScrollDepth != 0.6 {
		t.Errorf("MaxScrollDepth = %v, want 0.6", snap.MaxScrollDepth)
	}
}

func TestHandleBrowserEvent_CTAHoverOnlyCountsClassifiedCTAs(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()

	tr.handleBrowserEvent("cta_hover", `{"text":"Home","classes":"nav-link"}`)
	tr.handleBrowserEvent("cta_hover", `{"text":"Get Started","classes":""}`)

	snap := tr.Snapshot()
	if snap.CTAHovered != 1 {
		t.Errorf("CTAHovered = %d, want 1", snap.CTAHovered)
	}
}

func TestHandleBrowserEvent_ExitIntentIsSticky(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()

	tr.handleBrowserEvent("exit_intent", `{}`)
	if !tr.Snapshot().ExitIntentDetected {
		t.Fatal("expected ExitIntentDetected = true")
	}

	tr.handleBrowserEvent("scroll", `{"depth":0.1}`)
	if !tr.Snapshot().ExitIntentDetected {
		t.Error("ExitIntentDetected should remain true after unrelated events")
	}
}

func TestHandleBrowserEvent_SectionVisibleSetsViewedFlags(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()

	tr.handleBrowserEvent("section_visible", `{"section":"pricing"}`)
	tr.handleBrowserEvent("section_visible", `{"section":"features"}`)

	snap := tr.Snapshot()
	if !snap.PricingViewed || !snap.FeaturesViewed {
		t.Errorf("snapshot = %+v, want both viewed flags set", snap)
	}
}

func TestAddListener_ReceivesPublishedEvents(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()

	var gotCount int
	remove := tr.AddListener(EventCTAClick, func(e eventbus.Event) { gotCount++ })
	defer remove()

	tr.handleBrowserEvent("cta_click", `{"text":"Buy now","classes":""}`)
	if gotCount != 1 {
		t.Errorf("listener called %d times, want 1", gotCount)
	}
}

func TestReset_ZeroesBehaviorButStaysStarted(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker()
	tr.handleBrowserEvent("scroll", `{"depth":0.9}`)

	before := time.Now()
	tr.Reset()
	snap := tr.Snapshot()

	if snap.MaxScrollDepth != 0 {
		t.Errorf("MaxScrollDepth after reset = %v, want 0", snap.MaxScrollDepth)
	}
	if snap.SessionStartTime.Before(before) {
		t.Error("expected SessionStartTime to be refreshed")
	}
}
