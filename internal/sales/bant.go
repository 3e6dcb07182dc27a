package sales

import "strings"

// BANTScore is the qualification score the Sales Analyzer computes from a
// visitor's concatenated messages (spec.md §4.10).
type BANTScore struct {
	Budget         float64 `json:"budget"`
	Authority      float64 `json:"authority"`
	Need           float64 `json:"need"`
	Timeline       float64 `json:"timeline"`
	Total          float64 `json:"total"`
	IsQualified    bool    `json:"isQualified"`
	Recommendation string  `json:"recommendation"`
}

// bantSaturation is the keyword-hit count at which a BANT sub-score
// reaches 1.0; hits beyond this just stay capped.
const bantSaturation = 3

// BANTKeywords is the four keyword tables driving Budget/Authority/Need/
// Timeline sub-scores. Data, not code.
type BANTKeywords struct {
	Budget    []string
	Authority []string
	Need      []string
	Timeline  []string
}

// DefaultBANTKeywords returns the built-in BANT keyword tables.
func DefaultBANTKeywords() BANTKeywords {
	return BANTKeywords{
		Budget: []string{
			"budget", "cost", "price", "pricing", "afford", "expensive", "cheap", "spend",
		},
		Authority: []string{
			"i decide", "my team", "approval", "manager", "my boss", "stakeholder",
			"decision maker", "i can approve", "i'm the owner", "i own this",
		},
		Need: []string{
			"need", "problem", "pain", "struggle", "issue", "frustrated", "looking for",
			"trying to", "challenge",
		},
		Timeline: []string{
			"when", "timeline", "soon", "asap", "this quarter", "this month", "deadline",
			"urgently", "by next",
		},
	}
}

// ScoreBANT scores concatenated user messages against k, returning each
// sub-score, the mean total, qualification, and a recommendation band
// (spec.md §4.10: ≥0.8 close, ≥0.6 present, ≥0.4 nurture, else disqualify).
func ScoreBANT(messages []string, k BANTKeywords) BANTScore {
	text := strings.ToLower(strings.Join(messages, " "))

	budget := subScore(text, k.Budget)
	authority := subScore(text, k.Authority)
	need := subScore(text, k.Need)
	timeline := subScore(text, k.Timeline)
	total := (budget + authority + need + timeline) / 4

	return BANTScore{
		Budget:         budget,
		Authority:      authority,
		Need:           need,
		Timeline:       timeline,
		Total:          total,
		IsQualified:    total >= 0.6,
		Recommendation: recommendationBand(total),
	}
}

func subScore(text string, keywords []string) float64 {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	if hits > bantSaturation {
		hits = bantSaturation
	}
	return float64(hits) / float64(bantSaturation)
}

func recommendationBand(total float64) string {
	switch {
	case total >= 0.8:
		return "close"
	case total >= 0.6:
		return "present"
	case total >= 0.4:
		return "nurture"
	default:
		return "disqualify"
	}
}
