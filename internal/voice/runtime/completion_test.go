package runtime

import (
	"testing"
	"time"
)

func assertDoneWithin(t *testing.T, c *CompletionTracker, d time.Duration) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(d):
		t.Fatal("Done() never closed")
	}
}

func assertNotDone(t *testing.T, c *CompletionTracker) {
	t.Helper()
	select {
	case <-c.Done():
		t.Fatal("Done() closed too early")
	default:
	}
}

func TestCompletionTracker_FinalArrivesFirst(t *testing.T) {
	t.Parallel()
	c := NewCompletionTracker()
	c.SourceStarted()
	c.MarkFinalReceived()
	assertNotDone(t, c)
	c.SourceEnded()
	assertDoneWithin(t, c, time.Second)
}

func TestCompletionTracker_SourcesDrainFirst(t *testing.T) {
	t.Parallel()
	c := NewCompletionTracker()
	c.SourceStarted()
	c.SourceStarted()
	c.SourceEnded()
	assertNotDone(t, c) // one source still active and no final yet
	c.SourceEnded()
	assertNotDone(t, c) // all sources drained but final not yet signalled
	c.MarkFinalReceived()
	assertDoneWithin(t, c, time.Second)
}

func TestCompletionTracker_NoSourcesAndImmediateFinal(t *testing.T) {
	t.Parallel()
	c := NewCompletionTracker()
	c.MarkFinalReceived()
	assertDoneWithin(t, c, time.Second)
}

func TestCompletionTracker_ClosesDoneExactlyOnce(t *testing.T) {
	t.Parallel()
	c := NewCompletionTracker()
	c.MarkFinalReceived()
	assertDoneWithin(t, c, time.Second)
	// Further mutations after completion must not panic on a double close.
	c.MarkFinalReceived()
	c.SourceStarted()
	c.SourceEnded()
}

func TestCompletionTracker_IsComplete(t *testing.T) {
	t.Parallel()
	c := NewCompletionTracker()
	if c.IsComplete() {
		t.Fatal("IsComplete() true before any signal")
	}
	c.SourceStarted()
	c.MarkFinalReceived()
	if c.IsComplete() {
		t.Fatal("IsComplete() true with an active source")
	}
	c.SourceEnded()
	if !c.IsComplete() {
		t.Fatal("IsComplete() false once both conditions hold")
	}
}
