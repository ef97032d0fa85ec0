package prompt

import (
	"github.com/bridgehub/bridge/pkg/model"
)

// Complexity selects the model tier
type Complexity string

const (
	Simple  Complexity = "simple"
	Complex Complexity = "complex"
)

// longPromptWords is the length above which ties go to Complex
const longPromptWords = 10

var strongComplexMarkers = []string{
	"analyze", "analyse", "comprehensive", "implications", "methodology", "research",
	"evaluate", "synthesize", "compare", "examine", "assess", "discuss", "thorough", "academic",
}

var complexCategories = map[string][]string{
	"analysis":   {"explain", "analyze", "compare", "evaluate", "synthesize", "discuss", "examine", "assess", "review"},
	"inquiry":    {"why", "how", "what causes", "what makes", "what leads"},
	"process":    {"process", "method", "steps", "approach", "strategy", "methodology"},
	"subjective": {"emotional", "feel", "think", "opinion", "perspective", "viewpoint"},
	"difficulty": {"complex", "implications", "comprehensive", "thorough", "detailed", "in-depth"},
	"academic":   {"research", "theory", "concept", "principle", "framework"},
}

var simpleCategories = map[string][]string{
	"factual":      {"what is", "where is", "when is", "who is", "what are"},
	"definition":   {"define", "list", "name", "identify", "tell me"},
	"quantitative": {"price", "cost", "distance", "time", "number", "amount"},
}

var depthVibes = map[model.Vibe]bool{
	model.VibeAcademic: true,
	model.VibeBusiness: true,
	model.VibeCreative: true,
}

// Classification explains a complexity decision
type Classification struct {
	Complexity    Complexity `json:"complexity"`
	Reason        string     `json:"reason"`
	StrongMarkers []string   `json:"strong_markers,omitempty"`
	ComplexScore  int        `json:"complex_score"`
	SimpleScore   int        `json:"simple_score"`
}

// ClassifyComplexity decides whether prompt needs the basic or advanced tier
func ClassifyComplexity(prompt string, vibe model.Vibe, preference string) Complexity {
	return Classify(prompt, vibe, preference).Complexity
}

// Classify applies, in order: strong markers, explicit preference, keyword
// counts, then the length and vibe tie-break.
func Classify(prompt string, vibe model.Vibe, preference string) Classification {
	t := newText(prompt)

	var markers []string
	for _, m := range strongComplexMarkers {
		if t.has(m) {
			markers = append(markers, m)
		}
	}
	if len(markers) > 0 {
		return Classification{Complexity: Complex, Reason: "strong complexity marker", StrongMarkers: markers}
	}

	switch preference {
	case model.PreferenceCoT:
		return Classification{Complexity: Complex, Reason: "user preference " + preference}
	case model.PreferenceInformative:
		return Classification{Complexity: Simple, Reason: "user preference " + preference}
	}

	c := Classification{}
	for _, kws := range complexCategories {
		c.ComplexScore += t.count(kws)
	}
	for _, kws := range simpleCategories {
		c.SimpleScore += t.count(kws)
	}

	switch {
	case c.ComplexScore > c.SimpleScore:
		c.Complexity, c.Reason = Complex, "complex keywords outnumber simple ones"
	case c.SimpleScore > c.ComplexScore:
		c.Complexity, c.Reason = Simple, "simple keywords outnumber complex ones"
	case t.wordCount() > longPromptWords:
		c.Complexity, c.Reason = Complex, "tie broken by prompt length"
	case depthVibes[vibe]:
		c.Complexity, c.Reason = Complex, "tie broken by " + string(vibe) + " vibe"
	default:
		c.Complexity, c.Reason = Simple, "tie defaults to simple"
	}
	return c
}
