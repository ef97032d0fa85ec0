// Package prompt scores, classifies and rewrites user prompts before they
// reach a model: informativeness, answer complexity and tier templates.
package prompt

import (
	"strings"
	"unicode"
)

// text is a prompt prepared for keyword matching
type text struct {
	raw    string
	padded string // " word word " with punctuation reduced to spaces
	words  []string
}

func newText(s string) text {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' || r == '.' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	var words []string
	for _, w := range strings.Fields(mapped) {
		if w = strings.Trim(w, ".-'"); w != "" {
			words = append(words, w)
		}
	}
	return text{
		raw:    s,
		padded: " " + strings.Join(words, " ") + " ",
		words:  words,
	}
}

// has matches a keyword or phrase on word boundaries
func (t text) has(keyword string) bool {
	return strings.Contains(t.padded, " "+keyword+" ")
}

// count returns how many keywords appear at least once
func (t text) count(keywords []string) int {
	n := 0
	for _, k := range keywords {
		if t.has(k) {
			n++
		}
	}
	return n
}

func (t text) hasAny(keywords []string) bool {
	for _, k := range keywords {
		if t.has(k) {
			return true
		}
	}
	return false
}

// wordCount counts whitespace-separated words of the raw prompt
func (t text) wordCount() int {
	return len(strings.Fields(t.raw))
}
