package intent

import (
	"strings"
	"unicode"

	"github.com/RadhiFadlillah/whatlanggo"
)

const (
	// statistical detection only runs on ASCII prompts longer than this
	minDetectWords = 10
	// non-English is reported only above this confidence
	nonEnglishConfidence = 0.90
)

// LanguageDetector reports whether text is English and how confident the detector is
type LanguageDetector func(text string) (english bool, confidence float64)

// DetectLanguage runs trigram language detection
func DetectLanguage(text string) (bool, float64) {
	info := whatlanggo.Detect(text)
	return info.Lang == whatlanggo.Eng, info.Confidence
}

// nonEnglish flags any non-ASCII letter outright. Long ASCII prompts go through
// the detector; short ones are assumed English.
func (c *Classifier) nonEnglish(text string) bool {
	for _, r := range text {
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}

	if len(strings.Fields(text)) <= minDetectWords || c.detect == nil {
		return false
	}

	english, confidence := c.detect(text)
	return !english && confidence > nonEnglishConfidence
}
