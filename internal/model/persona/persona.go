package persona

// Persona captures a tone/framing profile applied to final answers.
type Persona struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tone   string `json:"tone"`
	Prefix string `json:"prefix"`
}

// Seed provides the default reader personas exposed by the widget.
func Seed() []Persona {
	return []Persona{
		{
			ID:     "founder",
			Name:   "Founder",
			Tone:   "strategic, outcome-focused",
			Prefix: "From a founder's perspective:",
		},
		{
			ID:     "technical",
			Name:   "Technical",
			Tone:   "precise, implementation-aware",
			Prefix: "From a technical standpoint:",
		},
		{
			ID:     "sales",
			Name:   "Sales",
			Tone:   "commercial, outcomes-first",
			Prefix: "From a business outcomes view:",
		},
	}
}

// Adapt reframes an answer in the persona's voice. An empty answer is
// returned untouched so failure substitutes keep their fixed wording.
func Adapt(p Persona, answer string) string {
	if answer == "" || p.Prefix == "" {
		return answer
	}
	return p.Prefix + "\n\n" + answer
}
