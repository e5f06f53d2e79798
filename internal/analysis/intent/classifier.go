package intent

import (
	"strings"

	"github.com/sensihi/copilot/internal/model/copilot"
)

// rule pairs an intent with the substrings that trigger it.
type rule struct {
	intent   copilot.Intent
	keywords []string
}

// rules are evaluated top-down; the first matching group wins. Commercial
// signals outrank everything else, so a message containing both "pricing"
// and "career" resolves to the commercial intent. Reordering this slice
// changes classification results.
var rules = []rule{
	{
		intent: copilot.IntentHighIntent,
		keywords: []string{
			"demo", "contact", "talk to", "sales", "reach you", "buy", "quote",
		},
	},
	{
		intent:   copilot.IntentPricing,
		keywords: []string{"pricing", "price", "cost", "how much"},
	},
	{
		intent:   copilot.IntentPartner,
		keywords: []string{"partner", "collaborate", "collaboration"},
	},
	{
		intent:   copilot.IntentTalent,
		keywords: []string{"career", "job", "hiring", "work for you"},
	},
	{
		intent: copilot.IntentResearch,
		keywords: []string{
			"insight", "blog", "article", "case study", "evaluate", "compare",
		},
	},
}

// Classify maps raw message text to an intent via case-insensitive
// substring matching. Pure and total; unmatched messages fall through to
// the exploring default with low confidence.
func Classify(message string) copilot.IntentResult {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return copilot.IntentResult{Intent: copilot.IntentExploring, Confidence: "low"}
	}

	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(normalized, keyword) {
				return copilot.IntentResult{Intent: r.intent, Confidence: "high"}
			}
		}
	}

	return copilot.IntentResult{Intent: copilot.IntentExploring, Confidence: "low"}
}

// AsksForDemo reports whether the message carries an explicit demo request.
// Feeds the lead scorer, not the classifier.
func AsksForDemo(message string) bool {
	return strings.Contains(strings.ToLower(message), "demo")
}
