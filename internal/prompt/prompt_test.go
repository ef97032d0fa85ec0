package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgehub/bridge/pkg/model"
)

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name      string
		prompt    string
		vibe      model.Vibe
		score     float64
		followUps int
	}{
		{"too short", "photosynthesis?", model.VibeDaily, ScoreTooShort, 1},
		{"two words", "quantum entanglement", model.VibeAcademic, ScoreTooShort, 1},
		{"no question structure", "tell me something interesting today", model.VibeDaily, ScoreNoQuestion, 1},
		{"daily question passes", "what should I cook tonight?", model.VibeDaily, ScoreInformative, 0},
		{"academic complete", "how does calculus apply at university level?", model.VibeAcademic, ScoreInformative, 0},
		{"academic missing one slot", "how does calculus work?", model.VibeAcademic, ScoreInformative, 0},
		{"academic missing both slots", "why do we dream at night?", model.VibeAcademic, 0.4, 2},
		{"business missing both", "how should we price our new offering?", model.VibeBusiness, 0.4, 2},
		{"technical complete", "why does my python script crash on startup?", model.VibeTechnical, ScoreInformative, 0},
		{"creative has no slots", "how would a dragon write a love letter?", model.VibeCreative, ScoreInformative, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, followUps := a.Analyze(tt.prompt, tt.vibe)
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.Len(t, followUps, tt.followUps)
			assert.LessOrEqual(t, len(followUps), maxFollowUps)
		})
	}
}

func TestAnalyze_FollowUpText(t *testing.T) {
	a := NewAnalyzer()

	_, followUps := a.Analyze("hi bridge", model.VibeDaily)
	assert.Equal(t, []string{"Could you provide more details about your question?"}, followUps)

	_, followUps = a.Analyze("tell me something interesting today", model.VibeDaily)
	assert.Equal(t, []string{"Could you phrase your request as a question?"}, followUps)

	_, followUps = a.Analyze("why do we dream at night?", model.VibeAcademic)
	assert.Equal(t, []string{
		"What specific academic subject is this related to?",
		"What academic level is this for?",
	}, followUps)
}

func TestAnalyze_WordBoundaries(t *testing.T) {
	a := NewAnalyzer()

	// "show" contains "how" and "capital" contains "api"; neither counts
	details := a.Details("show capital cities of europe", model.VibeTechnical)
	assert.False(t, details.HasQuestion)
	assert.Equal(t, ScoreNoQuestion, details.Score)
}

func TestContextScore(t *testing.T) {
	assert.Equal(t, ScoreInformative, contextScore(2, 0))
	assert.Equal(t, ScorePartial, contextScore(2, 1))
	assert.InDelta(t, 0.4, contextScore(2, 2), 1e-9)
	assert.InDelta(t, 0.4, contextScore(1, 1), 1e-9)
	assert.InDelta(t, 0.4+0.4/3, contextScore(3, 2), 1e-9)
}

func TestClassifyComplexity(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		vibe       model.Vibe
		preference string
		want       Complexity
	}{
		{"strong marker", "analyze the housing market", model.VibeDaily, "", Complex},
		{"strong marker beats preference", "compare go and rust", model.VibeDaily, model.PreferenceInformative, Complex},
		{"preference CoT", "what is the capital of peru", model.VibeDaily, model.PreferenceCoT, Complex},
		{"preference informative", "why is the sky blue", model.VibeDaily, model.PreferenceInformative, Simple},
		{"complex keywords win", "explain why the sky is blue", model.VibeDaily, "", Complex},
		{"simple keywords win", "what is the price of gold", model.VibeDaily, "", Simple},
		{"simple keywords beat depth vibe", "what is the price of gold", model.VibeAcademic, "", Simple},
		{"tie broken by vibe", "photosynthesis in plants", model.VibeAcademic, "", Complex},
		{"tie broken by length", "a story about a dragon who lives alone on a very tall mountain", model.VibeDaily, "", Complex},
		{"tie defaults simple", "photosynthesis in plants", model.VibeDaily, "", Simple},
		{"quantum entanglement academic", "Explain quantum entanglement", model.VibeAcademic, "", Complex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyComplexity(tt.prompt, tt.vibe, tt.preference))
		})
	}
}

func TestClassify_Reason(t *testing.T) {
	c := Classify("discuss the implications of AI", model.VibeDaily, "")
	assert.Equal(t, Complex, c.Complexity)
	assert.ElementsMatch(t, []string{"discuss", "implications"}, c.StrongMarkers)

	c = Classify("what is the time in tokyo", model.VibeDaily, "")
	assert.Equal(t, Simple, c.Complexity)
	assert.Equal(t, 2, c.SimpleScore)
	assert.Equal(t, 0, c.ComplexScore)
}

func TestEnhance(t *testing.T) {
	tests := []struct {
		name       string
		vibe       model.Vibe
		complexity Complexity
		opts       Options
		want       string
	}{
		{
			name:       "academic simple",
			vibe:       model.VibeAcademic,
			complexity: Simple,
			want:       "Please provide a concise academic answer about What is entropy?.",
		},
		{
			name:       "academic complex",
			vibe:       model.VibeAcademic,
			complexity: Complex,
			want:       "Please provide a detailed academic explanation about What is entropy?, showing your chain of thought.",
		},
		{
			name:       "technical complex",
			vibe:       model.VibeTechnical,
			complexity: Complex,
			want:       "Please explain in depth the technical aspects of What is entropy?, including reasoning.",
		},
		{
			name:       "fallback simple",
			vibe:       model.VibeDaily,
			complexity: Simple,
			want:       "Please answer the following question: What is entropy?.",
		},
		{
			name:       "fallback complex with context and confidence",
			vibe:       model.VibeBusiness,
			complexity: Complex,
			opts:       Options{ExtraContext: []string{"for a board meeting", " ", "keep it neutral"}, WantConfidence: true},
			want: "Please provide a detailed answer with your reasoning for: What is entropy?. " +
				"Additional context: for a board meeting, keep it neutral. " + ConfidenceDirective,
		},
		{
			name:       "length hint",
			vibe:       model.VibeDaily,
			complexity: Simple,
			opts:       Options{Length: model.LengthShort},
			want:       "Please answer the following question: What is entropy?. Keep the answer brief, a few sentences at most.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Enhance("What is entropy?", tt.vibe, tt.complexity, tt.opts))
		})
	}
}

func TestEnhance_ConfidenceDirectiveIsLast(t *testing.T) {
	out := Enhance("Explain black holes", model.VibeAcademic, Complex, Options{
		ExtraContext:   []string{"undergraduate level"},
		WantConfidence: true,
		Length:         model.LengthDetailed,
	})
	require.True(t, strings.HasSuffix(out, ConfidenceDirective))
	assert.Contains(t, out, "Additional context: undergraduate level.")
	assert.Contains(t, out, "Give a thorough, well-structured answer.")
}
