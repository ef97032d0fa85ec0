// Package quality scores model answers and decides whether the basic tier's
// answer should be regenerated by the advanced tier.
package quality

import (
	"strings"

	"github.com/bridgehub/bridge/internal/llm"
)

// DefaultThreshold is the overall score below which an escalatable answer is upgraded
const DefaultThreshold = 0.70

const (
	minAdequateWords = 20
	verboseWords     = 200
	tooShortWords    = 3

	// overall score forced for answers of fewer than three words
	tooShortOverall = 0.3
)

var (
	uncertaintyPhrases = []string{"i don't know", "i'm not sure", "unable to answer", "unclear", "not certain"}
	refusalPhrases     = []string{"i cannot", "i can't help", "not possible", "cannot provide"}
	genericPhrases     = []string{"it depends", "varies", "different for everyone"}

	specificPhrases  = []string{"specifically", "precisely", "exactly", "in particular"}
	confidentPhrases = []string{"definitely", "certainly", "clearly", "obviously"}
	detailedPhrases  = []string{"furthermore", "additionally", "moreover", "for example"}

	specificityMarkers = []string{
		"for example", "specifically", "such as", "including",
		"step 1", "step 2", "first", "second", "third",
		"percent", "%", "number", "amount",
	}
)

// component weights
const (
	weightContent    = 0.4
	weightLength     = 0.3
	weightSpecific   = 0.2
	weightConfidence = 0.1
)

// Score is the quality breakdown of one answer. It is never cached.
type Score struct {
	ContentQuality  float64 `json:"content_quality"`
	LengthAdequacy  float64 `json:"length_adequacy"`
	Specificity     float64 `json:"specificity"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Overall         float64 `json:"overall"`
	NeedsUpgrade    bool    `json:"needs_upgrade"`
}

// Evaluator scores answers against a fixed threshold
type Evaluator struct {
	threshold float64
}

// NewEvaluator creates an evaluator; a non-positive threshold uses DefaultThreshold
func NewEvaluator(threshold float64) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold}
}

// Threshold returns the upgrade threshold
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate scores answer. confidence is the model's self-reported confidence
// tag, if any; tier is the configuration that produced the answer.
func (e *Evaluator) Evaluate(answer string, confidence *float64, tier llm.TierConfig) Score {
	lower := strings.ToLower(answer)

	s := Score{
		ContentQuality:  contentQuality(lower),
		LengthAdequacy:  lengthAdequacy(len(strings.Fields(answer))),
		Specificity:     specificity(lower),
		ConfidenceLevel: confidenceLevel(lower),
	}
	s.Overall = overall(s, confidence)
	s.NeedsUpgrade = s.Overall < e.threshold && tier.CanEscalateFrom
	return s
}

func contentQuality(lower string) float64 {
	negative := countPhrases(lower, uncertaintyPhrases) +
		countPhrases(lower, refusalPhrases) +
		countPhrases(lower, genericPhrases)
	positive := countPhrases(lower, specificPhrases) +
		countPhrases(lower, confidentPhrases) +
		countPhrases(lower, detailedPhrases)

	score := 1.0 - min(0.25*float64(negative), 0.8) + min(0.1*float64(positive), 0.3)
	return clamp(score)
}

func lengthAdequacy(words int) float64 {
	switch {
	case words < tooShortWords:
		return 0.1
	case words < minAdequateWords:
		return float64(words) / minAdequateWords * 0.5
	case words > verboseWords:
		return 0.9
	default:
		return 1.0
	}
}

func specificity(lower string) float64 {
	n := countPhrases(lower, specificityMarkers)
	switch {
	case n >= 3:
		return 1.0
	case n >= 1:
		return 0.7 + 0.1*float64(n)
	default:
		return 0.5
	}
}

func confidenceLevel(lower string) float64 {
	high := countPhrases(lower, confidentPhrases)
	low := countPhrases(lower, uncertaintyPhrases)
	switch {
	case low > high:
		return 0.2
	case high > low:
		return 1.0
	default:
		return 0.7
	}
}

func overall(s Score, confidence *float64) float64 {
	if s.LengthAdequacy <= 0.1 {
		return tooShortOverall
	}

	weighted := s.ContentQuality*weightContent +
		s.LengthAdequacy*weightLength +
		s.Specificity*weightSpecific +
		s.ConfidenceLevel*weightConfidence

	if confidence != nil {
		weighted = (weighted + *confidence) / 2
	}
	return clamp(weighted)
}

// countPhrases counts phrases occurring anywhere in s
func countPhrases(s string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(s, p) {
			n++
		}
	}
	return n
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}
