package copilot

import (
	"regexp"
	"strings"

	model "github.com/sensihi/copilot/internal/model/copilot"
)

// recommendNextAction maps intent to 1-2 ranked CTAs. Unmapped intents
// get the generic explore/contact pair.
func recommendNextAction(intent model.Intent) []model.CTA {
	switch intent {
	case model.IntentHighIntent:
		return []model.CTA{
			{Label: "Contact Sensihi", URL: "/contact", Type: "primary"},
			{Label: "Explore Solutions", URL: "/solutions", Type: "secondary"},
		}
	case model.IntentPricing:
		return []model.CTA{
			{Label: "Talk to Us", URL: "/contact", Type: "primary"},
		}
	case model.IntentResearch:
		return []model.CTA{
			{Label: "Read Insights", URL: "/insights", Type: "primary"},
			{Label: "View Case Studies", URL: "/insights", Type: "secondary"},
		}
	case model.IntentPartner:
		return []model.CTA{
			{Label: "Partner with Sensihi", URL: "/contact", Type: "primary"},
			{Label: "Read Insights", URL: "/insights", Type: "secondary"},
		}
	case model.IntentTalent:
		return []model.CTA{
			{Label: "Explore Careers", URL: "/careers", Type: "primary"},
		}
	default:
		return []model.CTA{
			{Label: "Explore Insights", URL: "/insights", Type: "primary"},
			{Label: "Contact Us", URL: "/contact", Type: "secondary"},
		}
	}
}

// staticAnswer matches the zero-cost exact-answer table. Returns "" when
// no entry applies.
func staticAnswer(message string) string {
	m := strings.ToLower(message)

	if strings.Contains(m, "contact") || strings.Contains(m, "reach you") {
		return "You can reach the Sensihi team via the contact page to start a conversation."
	}

	return ""
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// formatAnswer normalizes whitespace and bullet spacing in model output.
func formatAnswer(text string) string {
	if text == "" {
		return ""
	}
	formatted := excessNewlines.ReplaceAllString(text, "\n\n")
	formatted = strings.ReplaceAll(formatted, "•", "• ")
	formatted = strings.ReplaceAll(formatted, "•  ", "• ")
	return strings.TrimSpace(formatted)
}
