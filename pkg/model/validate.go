package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxPromptLength is the largest prompt, in characters, accepted at the boundary
const MaxPromptLength = 10000

var (
	ErrEmptyPrompt   = errors.New("prompt is empty")
	ErrPromptTooLong = errors.New("prompt is too long")
	ErrInvalidSender = errors.New("sender id may only contain letters, digits, '_' and '-'")
	ErrUnknownVibe   = errors.New("unknown vibe")
	ErrUnknownLength = errors.New("unknown answer length")
)

var senderIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateQuery checks a request before it enters the pipeline.
// The pipeline itself assumes a validated, non-empty prompt.
func ValidateQuery(q QueryRequest) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if n := utf8.RuneCountInString(q.Prompt); n > MaxPromptLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrPromptTooLong, n, MaxPromptLength)
	}
	if q.SenderID != "" && !senderIDPattern.MatchString(q.SenderID) {
		return ErrInvalidSender
	}
	if _, err := ParseVibe(string(q.Vibe)); err != nil {
		return err
	}
	if _, err := ParseAnswerLength(string(q.AnswerLength)); err != nil {
		return err
	}
	return nil
}
