package memory

import "time"

// TranscriptEntry is a complete exchange record written to the session log.
// It captures both the speaker's utterance and, for turns the agent itself
// spoke, which instance produced it — forming the atomic unit of session
// history.
type TranscriptEntry struct {
	// SpeakerID identifies who spoke (the visitor's session-scoped ID, or
	// the agent's own ID).
	SpeakerID string

	// SpeakerName is the human-readable speaker name.
	SpeakerName string

	// Text is the (possibly corrected) transcript text.
	Text string

	// RawText is the original uncorrected STT output. Preserved for debugging.
	RawText string

	// IsAgent indicates whether this entry is the sales agent's own turn
	// rather than the visitor's.
	IsAgent bool

	// AgentID identifies the agent instance that produced this turn, when
	// IsAgent is true.
	AgentID string

	// Timestamp is when this entry was recorded.
	Timestamp time.Time

	// Duration is the length of the utterance.
	Duration time.Duration
}
