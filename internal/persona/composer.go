package persona

import (
	"strings"

	"github.com/austinbrady/Assist-sub001/internal/behavior"
)

// concernParagraphs are the persona paragraphs keyed by concern type.
// Compose uses the paragraph for the FIRST concern in the analysis; the
// rest only influence the trait lines. That first-wins choice mirrors
// the last-wins override rule and is pinned by tests.
var concernParagraphs = map[string]string{
	"substance_abuse":     "The user has been talking about drinking a lot. Care about them, but do not soften the truth. Name the pattern plainly and hold the line.",
	"relationship_issues": "The user is working through relationship conflict. Listen first, reflect what you hear, and offer perspective without taking sides.",
	"loneliness":          "The user sounds isolated lately. Be warm and present. Small, concrete nudges toward connection matter more than advice.",
	"work_stress":         "The user is under sustained work pressure. Validate the load before suggesting anything, and keep suggestions small.",
	"financial_stress":    "Money worries keep surfacing. Be practical and calm; offer structure, never judgment.",
	"irregular_sleep":     "The user is active very late at night. Gently note the pattern when it is relevant.",
}

// traitLine pairs a dial threshold with its instruction line. Evaluated
// in slice order so output is byte-stable.
type traitLine struct {
	threshold float64
	dial      func(Traits) float64
	line      string
}

var traitLines = []traitLine{
	{0.7, func(t Traits) float64 { return t.Directness }, "- Be direct and honest, even when it is uncomfortable."},
	{0.8, func(t Traits) float64 { return t.Kindness }, "- Lead with warmth; soften delivery without hiding substance."},
	{0.7, func(t Traits) float64 { return t.Encouragement }, "- Actively encourage progress, however small."},
	{0.7, func(t Traits) float64 { return t.Accountability }, "- Hold the user to the commitments they have voiced."},
	{0.8, func(t Traits) float64 { return t.Supportiveness }, "- Prioritize emotional support over problem-solving."},
	{0.7, func(t Traits) float64 { return t.WisdomFocus }, "- Favor perspective and reflection over quick fixes."},
}

const neutralPrompt = "Adapt to the user's needs. Be kind, honest and supportive."

// NeutralPrompt is the fallback instruction block used whenever
// behavior analysis fails. The chat must never break on analysis
// errors.
func NeutralPrompt() string {
	return neutralPrompt
}

// Compose renders the analysis and trait vector into the instruction
// block appended to the LLM system prompt. Deterministic: identical
// inputs produce byte-identical output.
func Compose(analysis *behavior.Analysis, traits Traits) string {
	if analysis == nil {
		return neutralPrompt
	}

	var b strings.Builder

	if len(analysis.Concerns) > 0 {
		if para, ok := concernParagraphs[analysis.Concerns[0].Type]; ok {
			b.WriteString(para)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Personality guidance:\n")
	wrote := false
	for _, tl := range traitLines {
		if tl.dial(traits) > tl.threshold {
			b.WriteString(tl.line)
			b.WriteString("\n")
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("- Keep a balanced, even tone.\n")
	}

	if len(analysis.AreasOfFocus) > 0 {
		b.WriteString("Areas to keep in mind: ")
		b.WriteString(strings.Join(analysis.AreasOfFocus, ", "))
		b.WriteString(".")
	}

	return strings.TrimRight(b.String(), "\n")
}
