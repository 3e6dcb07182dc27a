package runtime

import "sync"

// CompletionTracker implements spec.md §4.12's dual-boolean playback
// completion predicate: a TTS utterance is complete iff the server has
// signalled its last audio frame (hasReceivedFinal) AND every scheduled
// buffer has finished playing (activeSources == 0). Either condition can
// become true first — a short reply may finish playing before the server's
// final-frame signal arrives over a slow connection, and a long reply's
// server stream usually finishes well before the last buffer stops
// sounding — so completion is only ever decided by re-checking both after
// each relevant event.
type CompletionTracker struct {
	mu            sync.Mutex
	receivedFinal bool
	activeSources int
	done          chan struct{}
	closed        bool
}

// NewCompletionTracker returns a tracker for one utterance.
func NewCompletionTracker() *CompletionTracker {
	return &CompletionTracker{done: make(chan struct{})}
}

// MarkFinalReceived records that the server signalled its last audio frame.
func (c *CompletionTracker) MarkFinalReceived() {
	c.mu.Lock()
	c.receivedFinal = true
	c.checkLocked()
	c.mu.Unlock()
}

// SourceStarted records that one more buffer has been scheduled for
// playback.
func (c *CompletionTracker) SourceStarted() {
	c.mu.Lock()
	c.activeSources++
	c.mu.Unlock()
}

// SourceEnded records that one scheduled buffer finished playing.
func (c *CompletionTracker) SourceEnded() {
	c.mu.Lock()
	if c.activeSources > 0 {
		c.activeSources--
	}
	c.checkLocked()
	c.mu.Unlock()
}

// checkLocked closes c.done, if not already, once both completion
// conditions hold. Must be called with c.mu held.
func (c *CompletionTracker) checkLocked() {
	if c.closed {
		return
	}
	if c.receivedFinal && c.activeSources == 0 {
		c.closed = true
		close(c.done)
	}
}

// Done returns a channel closed exactly once, when this utterance's
// playback completes.
func (c *CompletionTracker) Done() <-chan struct{} {
	return c.done
}

// IsComplete reports whether both completion conditions currently hold.
func (c *CompletionTracker) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receivedFinal && c.activeSources == 0
}
