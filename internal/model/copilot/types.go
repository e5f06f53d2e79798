package copilot

// Intent is the classified conversational purpose of a user message.
type Intent string

const (
	IntentExploring  Intent = "exploring"
	IntentHighIntent Intent = "high_intent_buyer"
	IntentPricing    Intent = "pricing"
	IntentResearch   Intent = "research"
	IntentPartner    Intent = "partner"
	IntentTalent     Intent = "talent"
)

// IntentResult carries the classified intent plus a coarse confidence level.
type IntentResult struct {
	Intent     Intent `json:"intent"`
	Confidence string `json:"confidence,omitempty"`
}

// LeadTier buckets commercial interest.
type LeadTier string

const (
	TierCold LeadTier = "cold"
	TierWarm LeadTier = "warm"
	TierHot  LeadTier = "hot"
)

// LeadScore is the deterministic commercial-signal score for a turn.
type LeadScore struct {
	Score   int      `json:"score"`
	Tier    LeadTier `json:"tier"`
	Signals []string `json:"signals"`
}

// Reference points the user at the grounding content behind an answer.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CTA is a suggested next action rendered by the widget.
type CTA struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Type  string `json:"type,omitempty"`
}

// Request is the POST /copilot payload.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Page      string `json:"page,omitempty"`
	Persona   string `json:"persona,omitempty"`
}

// Response is the per-turn result returned to the widget. References is
// always non-nil so the wire shape stays a JSON array.
type Response struct {
	Message    string      `json:"message"`
	Intent     Intent      `json:"intent,omitempty"`
	Confidence string      `json:"confidence,omitempty"`
	References []Reference `json:"references"`
	Lead       *LeadScore  `json:"lead,omitempty"`
	CTA        []CTA       `json:"cta,omitempty"`
}
