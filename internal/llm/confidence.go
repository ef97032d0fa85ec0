package llm

import (
	"regexp"
	"strconv"
	"strings"
)

var confidenceTag = regexp.MustCompile(`\[CONFIDENCE:(1\.0|0(\.\d+)?)\]`)

// ParseConfidence extracts the first [CONFIDENCE:X] tag and returns the text
// with every tag removed. The confidence is nil when no valid tag is present.
func ParseConfidence(text string) (string, *float64) {
	var conf *float64
	if m := confidenceTag.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			conf = &v
		}
	}
	clean := confidenceTag.ReplaceAllString(text, "")
	return strings.TrimSpace(clean), conf
}
