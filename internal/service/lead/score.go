package lead

import "github.com/sensihi/copilot/internal/model/copilot"

// Scoring constants (tunable). Rules are independent and additive, so
// evaluation order never changes the result.
const (
	scoreHighIntent   = 40
	scoreEngagement   = 20
	scoreDemoRequest  = 30
	thresholdHot      = 70
	thresholdWarm     = 40
	engagementMinimum = 3
)

// Score maps commercial signals for one turn to a score and tier. Pure
// and total.
func Score(intent copilot.Intent, messageCount int, askedForDemo bool) copilot.LeadScore {
	score := 0
	signals := []string{}

	if intent == copilot.IntentHighIntent {
		score += scoreHighIntent
		signals = append(signals, "high_intent_language")
	}

	if messageCount > engagementMinimum {
		score += scoreEngagement
		signals = append(signals, "multi_message_engagement")
	}

	if askedForDemo {
		score += scoreDemoRequest
		signals = append(signals, "explicit_demo_request")
	}

	tier := copilot.TierCold
	switch {
	case score >= thresholdHot:
		tier = copilot.TierHot
	case score >= thresholdWarm:
		tier = copilot.TierWarm
	}

	return copilot.LeadScore{Score: score, Tier: tier, Signals: signals}
}
