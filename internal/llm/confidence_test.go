package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		text       string
		confidence *float64
	}{
		{"no tag", "Paris is the capital.", "Paris is the capital.", nil},
		{"trailing tag", "Paris is the capital. [CONFIDENCE:0.95]", "Paris is the capital.", ptr(0.95)},
		{"one point zero", "Certain. [CONFIDENCE:1.0]", "Certain.", ptr(1.0)},
		{"bare zero", "No idea [CONFIDENCE:0]", "No idea", ptr(0)},
		{"out of range is ignored", "Hmm [CONFIDENCE:1.5]", "Hmm [CONFIDENCE:1.5]", nil},
		{"mid-text tag stripped", "First [CONFIDENCE:0.4] second", "First  second", ptr(0.4)},
		{"first tag wins", "A [CONFIDENCE:0.2] B [CONFIDENCE:0.8]", "A  B", ptr(0.2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, conf := ParseConfidence(tt.input)
			assert.Equal(t, tt.text, text)
			if tt.confidence == nil {
				assert.Nil(t, conf)
				return
			}
			require.NotNil(t, conf)
			assert.InDelta(t, *tt.confidence, *conf, 1e-9)
		})
	}
}

func ptr(f float64) *float64 {
	return &f
}
