// Package intent detects prompts Bridge can answer without a model call:
// non-English input, arithmetic, and conversational boilerplate.
package intent

import (
	"strings"
)

// Kind is the detected intent category
type Kind string

const (
	KindNone       Kind = "none"
	KindNonEnglish Kind = "non_english"
	KindGreeting   Kind = "greeting"
	KindThanks     Kind = "thanks"
	KindSystemInfo Kind = "system_info"
	KindUnclear    Kind = "unclear"
	KindArithmetic Kind = "arithmetic"
)

// Tone selects a canned reply variant
type Tone string

const (
	ToneNeutral      Tone = "neutral"
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneSimple       Tone = "simple"
	ToneFrustrated   Tone = "frustrated"
	ToneHelpSeeking  Tone = "help_seeking"
	ToneVague        Tone = "vague"
)

// Intent is the result of classifying a prompt
type Intent struct {
	Kind       Kind
	Tone       Tone
	Expression string
}

// ShortCircuit reports whether the intent is answered without a model
func (i Intent) ShortCircuit() bool {
	return i.Kind != KindNone && i.Kind != ""
}

// Classifier detects short-circuit intents. The zero value is not usable; use NewClassifier.
type Classifier struct {
	detect LanguageDetector
}

// NewClassifier returns a classifier backed by statistical language detection
func NewClassifier() *Classifier {
	return &Classifier{detect: DetectLanguage}
}

// WithLanguageDetector returns a copy of c using d for long ASCII prompts
func (c *Classifier) WithLanguageDetector(d LanguageDetector) *Classifier {
	return &Classifier{detect: d}
}

// Classify returns the first matching intent in order: non-English,
// greeting, thanks, system info, unclear, arithmetic.
func (c *Classifier) Classify(prompt string) Intent {
	text := strings.TrimSpace(prompt)
	if text == "" {
		return Intent{Kind: KindNone}
	}

	if c.nonEnglish(text) {
		return Intent{Kind: KindNonEnglish, Tone: ToneNeutral}
	}

	norm := normalize(text)
	words := strings.Fields(norm)

	switch {
	case isGreeting(norm, words):
		return Intent{Kind: KindGreeting, Tone: greetingTone(norm, words)}
	case isThanks(words):
		return Intent{Kind: KindThanks, Tone: thanksTone(norm, words)}
	case isSystemInfo(norm, words):
		return Intent{Kind: KindSystemInfo, Tone: ToneNeutral}
	case isUnclear(words):
		return Intent{Kind: KindUnclear, Tone: unclearTone(words)}
	}

	if expr, err := ExtractExpression(text); err == nil {
		return Intent{Kind: KindArithmetic, Expression: expr}
	}

	return Intent{Kind: KindNone}
}
