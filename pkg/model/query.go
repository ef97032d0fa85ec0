// Package model defines the request, response and history types shared by every
// stage of the Bridge pipeline.
package model

import (
	"fmt"
	"strings"
)

// Vibe is the caller-selected response style. It also partitions the cache namespace.
type Vibe string

const (
	VibeAcademic  Vibe = "academic"
	VibeBusiness  Vibe = "business"
	VibeTechnical Vibe = "technical"
	VibeDaily     Vibe = "daily"
	VibeCreative  Vibe = "creative"
)

// AllVibes lists the supported vibes in display order
var AllVibes = []Vibe{VibeAcademic, VibeBusiness, VibeTechnical, VibeDaily, VibeCreative}

var vibeAliases = map[string]Vibe{
	"academic":              VibeAcademic,
	"academic/research":     VibeAcademic,
	"academic_research":     VibeAcademic,
	"research":              VibeAcademic,
	"business":              VibeBusiness,
	"business/professional": VibeBusiness,
	"business_professional": VibeBusiness,
	"professional":          VibeBusiness,
	"technical":             VibeTechnical,
	"technical/development": VibeTechnical,
	"technical_development": VibeTechnical,
	"development":           VibeTechnical,
	"daily":                 VibeDaily,
	"daily/general":         VibeDaily,
	"daily_general":         VibeDaily,
	"general":               VibeDaily,
	"creative":              VibeCreative,
	"creative/emotional":    VibeCreative,
	"creative_emotional":    VibeCreative,
	"emotional":             VibeCreative,
}

// ParseVibe converts a user supplied vibe name (including legacy aliases) to a Vibe.
// An empty string maps to VibeDaily.
func ParseVibe(s string) (Vibe, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return VibeDaily, nil
	}
	if v, ok := vibeAliases[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVibe, s)
}

// AnswerLength is the requested answer size. Part of the cache key.
type AnswerLength string

const (
	LengthShort    AnswerLength = "short"
	LengthMedium   AnswerLength = "medium"
	LengthDetailed AnswerLength = "detailed"
)

// ParseAnswerLength converts a user supplied length. Empty maps to LengthMedium.
func ParseAnswerLength(s string) (AnswerLength, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LengthMedium, nil
	case "short", "brief", "concise":
		return LengthShort, nil
	case "medium", "normal", "standard":
		return LengthMedium, nil
	case "detailed", "long", "in-depth":
		return LengthDetailed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLength, s)
	}
}

// Response preferences understood by the complexity classifier
const (
	PreferenceCoT         = "CoT"
	PreferenceInformative = "informative"
)

// QueryRequest is a single question entering the pipeline
type QueryRequest struct {
	Prompt             string       `json:"prompt"`
	Vibe               Vibe         `json:"vibe"`
	AnswerLength       AnswerLength `json:"answer_length"`
	SenderID           string       `json:"sender_id"`
	QuestionID         string       `json:"question_id"`
	WantConfidence     bool         `json:"want_confidence"`
	ResponsePreference string       `json:"response_preference,omitempty"`
	AdditionalInfo     []string     `json:"additional_info,omitempty"`
}

// IsGuest reports whether the sender is an unauthenticated guest
func (q QueryRequest) IsGuest() bool {
	return strings.HasPrefix(q.SenderID, "guest_")
}

// NormalizePrompt lowercases the prompt and collapses whitespace.
// The result is the prompt component of every cache key.
func NormalizePrompt(prompt string) string {
	return strings.ToLower(strings.Join(strings.Fields(prompt), " "))
}
