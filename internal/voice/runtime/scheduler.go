package runtime

import (
	"sync"
	"time"

	"github.com/salesagent/runtime/pkg/types"
)

// minScheduleLead is the minimum lead time ahead of "now" any chunk is
// scheduled at, giving the playback pipeline room to actually start the
// source before its scheduled time arrives (spec.md §4.12).
const minScheduleLead = 50 * time.Millisecond

// bytesPerSample is fixed by the negotiated format: 16-bit little-endian PCM.
const bytesPerSample = 2

// ScheduledChunk is one chunk handed back by [Scheduler.Schedule]: the
// decoded float32 samples (PCM16LE converted to [-1, 1] floats, as the
// browser's Web Audio API expects) plus when it was scheduled to start and
// how long it plays.
type ScheduledChunk struct {
	Samples  []float32
	StartAt  time.Duration
	Duration time.Duration
}

// Scheduler implements the gapless playback cursor described in spec.md
// §4.12: each arriving chunk is scheduled at max(nextPlayTime, now+50ms),
// nextPlayTime then advances by that chunk's duration so the next chunk
// begins exactly where this one ends (no gap, no overlap). A 44-byte
// RIFF/WAV header is stripped once per stream. Active chunks are tracked in
// a set so playback completion can be checked against [CompletionTracker].
//
// Scheduler has no concept of a real audio clock — "now" is the caller's
// virtual clock position (time since the session/stream started), passed
// explicitly to [Scheduler.Schedule] so tests don't depend on wall time.
type Scheduler struct {
	mu             sync.Mutex
	sampleRate     int
	nextPlayTime   time.Duration
	headerStripped bool
	active         map[uint64]struct{}
	nextSourceID   uint64
}

// NewScheduler returns a [Scheduler] for the given sample rate (typically
// [types.DefaultAudioFormat.SampleRate]).
func NewScheduler(sampleRate int) *Scheduler {
	return &Scheduler{sampleRate: sampleRate, active: make(map[uint64]struct{})}
}

// Schedule accepts one chunk of base64-decoded audio bytes at virtual time
// now, strips a WAV header if this is the first chunk of the stream, decodes
// PCM16LE to float32, and returns the chunk scheduled to start at
// max(nextPlayTime, now+50ms). The returned sourceID must be passed to
// [Scheduler.SourceEnded] once playback of this chunk finishes.
func (s *Scheduler) Schedule(now time.Duration, chunk []byte) (sourceID uint64, scheduled ScheduledChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerStripped {
		s.headerStripped = true
		if len(chunk) >= types.WAVHeaderSize && isWAVHeader(chunk) {
			chunk = chunk[types.WAVHeaderSize:]
		}
	}

	samples := decodePCM16LE(chunk)
	duration := sampleDuration(len(samples), s.sampleRate)

	startAt := s.nextPlayTime
	earliest := now + minScheduleLead
	if startAt < earliest {
		startAt = earliest
	}
	s.nextPlayTime = startAt + duration

	s.nextSourceID++
	id := s.nextSourceID
	s.active[id] = struct{}{}

	return id, ScheduledChunk{Samples: samples, StartAt: startAt, Duration: duration}
}

// SourceEnded marks sourceID's playback as finished and reports whether any
// sources remain active.
func (s *Scheduler) SourceEnded(sourceID uint64) (activeRemaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sourceID)
	return len(s.active)
}

// ActiveCount returns the number of chunks currently scheduled/playing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Reset implements interrupt/flush (spec.md §4.12): stops tracking all
// active sources and resets nextPlayTime to the given virtual clock
// position, as well as the WAV-header latch so a freshly-started stream
// strips its header again.
func (s *Scheduler) Reset(now time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = make(map[uint64]struct{})
	s.nextPlayTime = now
	s.headerStripped = false
}

func isWAVHeader(chunk []byte) bool {
	return len(chunk) >= 4 && string(chunk[0:4]) == "RIFF"
}

// decodePCM16LE converts little-endian 16-bit PCM bytes to float32 samples
// in [-1, 1], the format the browser's Web Audio API buffer expects.
func decodePCM16LE(b []byte) []float32 {
	n := len(b) / bytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		lo := b[i*2]
		hi := b[i*2+1]
		v := int16(uint16(lo) | uint16(hi)<<8)
		out[i] = float32(v) / 32768.0
	}
	return out
}

func sampleDuration(numSamples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(numSamples) * time.Second / time.Duration(sampleRate)
}
