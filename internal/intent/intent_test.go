package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Greeting(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		prompt string
		tone   Tone
	}{
		{"hey there!", ToneCasual},
		{"hi", ToneNeutral},
		{"hello world", ToneNeutral},
		{"good morning", ToneFormal},
		{"good afternoon", ToneFormal},
		{"good evening", ToneFormal},
		{"shalom", ToneNeutral},
		{"hola amigo", ToneCasual},
		{"bonjour", ToneNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			got := c.Classify(tt.prompt)
			assert.Equal(t, KindGreeting, got.Kind)
			assert.Equal(t, tt.tone, got.Tone)
			assert.True(t, got.ShortCircuit())
		})
	}
}

func TestClassify_Thanks(t *testing.T) {
	c := NewClassifier()

	for _, prompt := range []string{"thank you", "thanks a lot", "appreciate it", "grateful for help", "toda"} {
		t.Run(prompt, func(t *testing.T) {
			assert.Equal(t, KindThanks, c.Classify(prompt).Kind)
		})
	}
}

func TestClassify_SystemInfo(t *testing.T) {
	c := NewClassifier()

	for _, prompt := range []string{"what is bridge", "what can you do", "your capabilities", "tell me about bridge", "how do you work"} {
		t.Run(prompt, func(t *testing.T) {
			assert.Equal(t, KindSystemInfo, c.Classify(prompt).Kind)
		})
	}
}

func TestClassify_Unclear(t *testing.T) {
	c := NewClassifier()

	for _, prompt := range []string{"help", "problem", "stuck", "error", "help me", "not working"} {
		t.Run(prompt, func(t *testing.T) {
			assert.Equal(t, KindUnclear, c.Classify(prompt).Kind)
		})
	}
}

func TestClassify_None(t *testing.T) {
	c := NewClassifier().WithLanguageDetector(func(string) (bool, float64) { return true, 1 })

	tests := []string{
		"explain quantum computing principles",
		"how to implement machine learning algorithm",
		"what are the economic implications of AI",
		"analyze this business proposal",
		"Explain quantum entanglement",
		"how do I build a bridge over a small creek in my garden",
		"list 5 examples of 2 - 3 step processes",
		"",
	}

	for _, prompt := range tests {
		t.Run(prompt, func(t *testing.T) {
			got := c.Classify(prompt)
			assert.Equal(t, KindNone, got.Kind)
			assert.False(t, got.ShortCircuit())
		})
	}
}

func TestClassify_Arithmetic(t *testing.T) {
	c := NewClassifier()

	got := c.Classify("twelve plus seven")
	assert.Equal(t, KindArithmetic, got.Kind)
	assert.Equal(t, "12 + 7", got.Expression)

	got = c.Classify("What is 6 * 7?")
	assert.Equal(t, KindArithmetic, got.Kind)
	assert.Equal(t, "6 * 7", got.Expression)
}

func TestClassify_NonEnglish(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		detector LanguageDetector
		want     Kind
	}{
		{
			name:   "non-ascii letters",
			prompt: "מה השעה",
			want:   KindNonEnglish,
		},
		{
			name:   "accented latin",
			prompt: "¿qué hora es?",
			want:   KindNonEnglish,
		},
		{
			name:   "math symbols are not letters",
			prompt: "3 × 4",
			want:   KindArithmetic,
		},
		{
			name:   "typographic quotes are not letters",
			prompt: "what does “idempotent” mean in http apis",
			want:   KindNone,
		},
		{
			name:     "short ascii skips detection",
			prompt:   "donde esta la biblioteca",
			detector: func(string) (bool, float64) { return false, 0.99 },
			want:     KindNone,
		},
		{
			name:     "long ascii confidently foreign",
			prompt:   "donde esta la biblioteca de la universidad en el centro de la ciudad por favor",
			detector: func(string) (bool, float64) { return false, 0.95 },
			want:     KindNonEnglish,
		},
		{
			name:     "long ascii low confidence stays english",
			prompt:   "donde esta la biblioteca de la universidad en el centro de la ciudad por favor",
			detector: func(string) (bool, float64) { return false, 0.90 },
			want:     KindNone,
		},
		{
			name:     "long english",
			prompt:   "could you please explain how the immune system recognizes a virus it has never seen",
			detector: func(string) (bool, float64) { return true, 0.99 },
			want:     KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier()
			if tt.detector != nil {
				c = c.WithLanguageDetector(tt.detector)
			}
			assert.Equal(t, tt.want, c.Classify(tt.prompt).Kind)
		})
	}
}

func TestDetectLanguage_English(t *testing.T) {
	english, _ := DetectLanguage("The quick brown fox jumps over the lazy dog while the farmer watches from the porch")
	assert.True(t, english)
}

func TestReplyFor(t *testing.T) {
	tests := []struct {
		kind   Kind
		prompt string
		want   string
	}{
		{KindGreeting, "good morning", "Hello! Great to meet you"},
		{KindGreeting, "hey there", "Hey and welcome"},
		{KindGreeting, "hello", "Hi there! I'm Bridge"},
		{KindThanks, "thank you so much", "My pleasure"},
		{KindThanks, "thanks", "You're very welcome"},
		{KindThanks, "thank you", "Glad I could help"},
		{KindUnclear, "stuck with problem", "something you want to solve"},
		{KindUnclear, "need help", "I'm here to help"},
		{KindUnclear, "how?", "work on this together"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.prompt, func(t *testing.T) {
			assert.Contains(t, ReplyFor(tt.kind, tt.prompt), tt.want)
		})
	}
}

func TestReply(t *testing.T) {
	assert.NotEmpty(t, Reply(Intent{Kind: KindSystemInfo}))
	assert.NotEmpty(t, Reply(Intent{Kind: KindNonEnglish}))
	assert.Contains(t, Reply(Intent{Kind: KindUnclear}), "work on this together")
	assert.Empty(t, Reply(Intent{Kind: KindArithmetic, Expression: "1 + 1"}))
	assert.Empty(t, Reply(Intent{Kind: KindNone}))
}
