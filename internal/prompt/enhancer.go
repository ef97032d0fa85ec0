package prompt

import (
	"strings"

	"github.com/bridgehub/bridge/pkg/model"
)

// ConfidenceDirective asks the model to append a parseable confidence tag
const ConfidenceDirective = "End your response with: [CONFIDENCE:X] where X is 0.0 to 1.0"

type template struct {
	simple  string
	complex string
}

func (t template) pick(c Complexity) string {
	if c == Complex {
		return t.complex
	}
	return t.simple
}

var vibeTemplates = map[model.Vibe]template{
	model.VibeAcademic: {
		simple:  "Please provide a concise academic answer about {topic}.",
		complex: "Please provide a detailed academic explanation about {topic}, showing your chain of thought.",
	},
	model.VibeTechnical: {
		simple:  "Please provide a technical answer about {topic}.",
		complex: "Please explain in depth the technical aspects of {topic}, including reasoning.",
	},
}

var defaultTemplate = template{
	simple:  "Please answer the following question: {topic}.",
	complex: "Please provide a detailed answer with your reasoning for: {topic}.",
}

var lengthHints = map[model.AnswerLength]string{
	model.LengthShort:    "Keep the answer brief, a few sentences at most.",
	model.LengthDetailed: "Give a thorough, well-structured answer.",
}

// Options are the optional inputs to Enhance
type Options struct {
	ExtraContext   []string
	WantConfidence bool
	Length         model.AnswerLength
}

// Enhance rewrites prompt into a tier-appropriate instruction. Templates are
// keyed by vibe and complexity, with a generic fallback keyed by complexity.
func Enhance(prompt string, vibe model.Vibe, complexity Complexity, opts Options) string {
	tmpl, ok := vibeTemplates[vibe]
	if !ok {
		tmpl = defaultTemplate
	}
	topic := strings.TrimRight(strings.TrimSpace(prompt), ".")

	parts := []string{strings.ReplaceAll(tmpl.pick(complexity), "{topic}", topic)}

	if hint, ok := lengthHints[opts.Length]; ok {
		parts = append(parts, hint)
	}

	var extra []string
	for _, c := range opts.ExtraContext {
		if c = strings.TrimSpace(c); c != "" {
			extra = append(extra, c)
		}
	}
	if len(extra) > 0 {
		parts = append(parts, "Additional context: "+strings.Join(extra, ", ")+".")
	}

	if opts.WantConfidence {
		parts = append(parts, ConfidenceDirective)
	}

	return strings.Join(parts, " ")
}
