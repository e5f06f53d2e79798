package retrieval

import "strings"

// defaultContext is the absolute last resort; the resolver must never
// return empty grounding text.
const defaultContext = "Sensihi provides AI-driven solutions that help modern businesses " +
	"improve decision-making, automate workflows, and scale intelligence across teams."

// fallbackContent returns keyword-matched canned paragraphs, used only
// when both context reuse and retrieval yield nothing. No network access.
func fallbackContent(query string) []string {
	q := strings.ToLower(query)

	if strings.Contains(q, "sensihi") {
		return []string{
			"Sensihi is an AI consultancy that helps organizations apply AI responsibly " +
				"to real business workflows, improving decision-making, automation, and scalability.",
		}
	}

	if strings.Contains(q, "prototyping") {
		return []string{
			"Prototyping is the process of creating early models of AI-enabled solutions " +
				"to test ideas, validate workflows, and ensure real business value before " +
				"full-scale implementation.",
		}
	}

	if strings.Contains(q, "ai") {
		return []string{
			"Sensihi focuses on practical AI adoption, embedding AI into existing tools " +
				"and workflows rather than deploying generic automation.",
		}
	}

	return []string{
		"Sensihi helps teams adopt AI responsibly by aligning technology with real " +
			"business processes and measurable outcomes.",
	}
}
