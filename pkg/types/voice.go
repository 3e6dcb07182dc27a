package types

import "time"

// VoiceState is one state of the Voice Runtime's turn-taking state machine.
type VoiceState string

const (
	VoiceIdle         VoiceState = "idle"
	VoiceListening    VoiceState = "listening"
	VoiceUserSpeaking VoiceState = "user-speaking"
	VoiceProcessing   VoiceState = "processing"
	VoiceAISpeaking   VoiceState = "ai-speaking"
	VoiceError        VoiceState = "error"
)

// AudioFormat describes the negotiated PCM format for a voice session.
// The default negotiation is mono 44.1kHz 16-bit little-endian PCM, with a
// one-time 44-byte RIFF/WAV header stripped from the first chunk of a stream.
type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultAudioFormat is the default negotiated format (spec §6).
var DefaultAudioFormat = AudioFormat{SampleRate: 44100, Channels: 1, BitDepth: 16}

// WAVHeaderSize is the fixed size of the RIFF/WAV header stripped once per
// stream (spec §4.12, §8 boundary test).
const WAVHeaderSize = 44

// Transcript is a speech-to-text result. Both partial (interim) and final
// transcripts use this type; VoiceRuntime treats a final transcript followed
// by [SessionConfig.SilenceThreshold] of silence as a completed turn.
type Transcript struct {
	Text       string
	IsFinal    bool
	Confidence float64
	Words      []WordDetail
	Timestamp  time.Duration
	Duration   time.Duration
}

// WordDetail holds per-word timing/confidence from STT providers that report it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// KeywordBoost biases STT recognition toward a vocabulary term, used to
// improve recognition of product/plan names mentioned in the page content
// (e.g. plan names pulled from [PricingCard.Plan]).
type KeywordBoost struct {
	Keyword string
	Boost   float64
}

// VoiceProfile describes a TTS voice configuration.
type VoiceProfile struct {
	ID          string
	Name        string
	Provider    string
	SpeedFactor float64
	Metadata    map[string]string
}
