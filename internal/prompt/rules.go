package prompt

import "fmt"

// TextWordLimit and VoiceWordLimit are the response-length ceilings spec.md
// §4.11 sets for the text and voice surfaces respectively.
const (
	TextWordLimit  = 80
	VoiceWordLimit = 50
)

// WordLimit returns the word ceiling for the given mode.
func WordLimit(voiceMode bool) int {
	if voiceMode {
		return VoiceWordLimit
	}
	return TextWordLimit
}

// responseRules renders the fixed response-rules block appended to every
// prompt: a word ceiling appropriate to the surface, the requirement to end
// on a question or CTA, and the ground-truth-only constraint. Voice mode
// additionally asks for a "say yes"-style CTA preset, since a voice reply
// has no clickable surface of its own to fall back on.
func responseRules(voiceMode bool) []string {
	rules := []string{
		fmt.Sprintf("Keep your response to %d words or fewer.", WordLimit(voiceMode)),
		"End your response with a question or a clear call to action.",
		"Never state a fact (price, feature, policy) that isn't present in the page content above.",
	}
	if voiceMode {
		rules = append(rules, `Prefer a "say yes"-style call to action the visitor can answer out loud.`)
	}
	return rules
}
