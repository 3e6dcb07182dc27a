package types

import "time"

// AudioFrame is a single frame of PCM audio flowing through the Voice
// Runtime's (C13) gapless playback scheduler — captured from the
// WebSocket-framed browser MediaRecorder input, or decoded from a TTS
// provider's output stream before being scheduled for playback.
type AudioFrame struct {
	Data       []byte
	SampleRate int
	Channels   int
	Timestamp  time.Duration
}
