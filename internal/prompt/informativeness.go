package prompt

import (
	"strings"

	"github.com/bridgehub/bridge/pkg/model"
)

// Informativeness scores
const (
	ScoreTooShort    = 0.2
	ScoreNoQuestion  = 0.4
	ScoreInformative = 0.8
	ScorePartial     = 0.6

	// contextual scores below this return follow-up questions
	contextPassScore = 0.5
	minWords         = 3
	maxFollowUps     = 3
)

const (
	followUpMoreDetail = "Could you provide more details about your question?"
	followUpAsQuestion = "Could you phrase your request as a question?"
)

var questionWords = []string{"who", "what", "where", "when", "why", "how"}

// slot is a piece of context a vibe expects the prompt to carry
type slot struct {
	name     string
	keywords []string
	question string
}

var vibeSlots = map[model.Vibe][]slot{
	model.VibeAcademic: {
		{
			name: "subject",
			keywords: []string{
				"subject", "field", "discipline", "mathematics", "math", "science", "history",
				"calculus", "physics", "chemistry", "biology", "literature", "psychology",
				"computer science", "engineering", "economics", "philosophy", "quantum",
			},
			question: "What specific academic subject is this related to?",
		},
		{
			name: "level",
			keywords: []string{
				"level", "grade", "year", "undergraduate", "graduate", "university",
				"college", "high school", "elementary", "advanced", "beginner", "course",
			},
			question: "What academic level is this for?",
		},
	},
	model.VibeBusiness: {
		{
			name: "industry",
			keywords: []string{
				"industry", "sector", "business", "company", "technology", "healthcare",
				"finance", "marketing", "sales", "consulting", "startup", "retail",
			},
			question: "Which industry or business sector is this question about?",
		},
		{
			name: "role",
			keywords: []string{
				"role", "position", "job", "responsibility", "manager", "developer",
				"analyst", "director", "coordinator", "specialist", "founder", "ceo",
			},
			question: "What is your role or position in this context?",
		},
	},
	model.VibeTechnical: {
		{
			name: "technology",
			keywords: []string{
				"programming language", "framework", "library", "technology", "tool", "platform",
				"python", "javascript", "go", "golang", "rust", "java", "react", "node.js",
				"docker", "kubernetes", "aws", "api", "database", "sql", "linux",
			},
			question: "Which specific technology or platform are you working with?",
		},
		{
			name: "problem",
			keywords: []string{
				"error", "issue", "problem", "bug", "not working", "fix", "solution",
				"troubleshoot", "fails", "failing", "crash", "slow",
			},
			question: "Can you describe the specific problem or error you're encountering?",
		},
	},
}

// Analysis is the detailed result of an informativeness check
type Analysis struct {
	Score         float64  `json:"score"`
	FollowUps     []string `json:"follow_ups,omitempty"`
	WordCount     int      `json:"word_count"`
	HasQuestion   bool     `json:"has_question"`
	MissingSlots  []string `json:"missing_slots,omitempty"`
	VibeSupported bool     `json:"vibe_supported"`
}

// Analyzer scores whether a prompt carries enough context for its vibe
type Analyzer struct{}

// NewAnalyzer creates an informativeness analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the informativeness score and follow-up questions
func (a *Analyzer) Analyze(prompt string, vibe model.Vibe) (float64, []string) {
	res := a.Details(prompt, vibe)
	return res.Score, res.FollowUps
}

// Details runs the three-stage check and reports how the score was reached
func (a *Analyzer) Details(prompt string, vibe model.Vibe) Analysis {
	t := newText(prompt)
	slots, supported := vibeSlots[vibe]

	res := Analysis{
		WordCount:     t.wordCount(),
		HasQuestion:   strings.Contains(prompt, "?") || t.hasAny(questionWords),
		VibeSupported: supported,
	}

	if res.WordCount < minWords {
		res.Score = ScoreTooShort
		res.FollowUps = []string{followUpMoreDetail}
		return res
	}

	if !res.HasQuestion {
		res.Score = ScoreNoQuestion
		res.FollowUps = []string{followUpAsQuestion}
		return res
	}

	if supported {
		var questions []string
		for _, s := range slots {
			if !t.hasAny(s.keywords) {
				res.MissingSlots = append(res.MissingSlots, s.name)
				questions = append(questions, s.question)
			}
		}

		score := contextScore(len(slots), len(res.MissingSlots))
		if score < contextPassScore && len(questions) > 0 {
			if len(questions) > maxFollowUps {
				questions = questions[:maxFollowUps]
			}
			res.Score = score
			res.FollowUps = questions
			return res
		}
	}

	res.Score = ScoreInformative
	return res
}

// contextScore grows with the fraction of required slots present
func contextScore(total, missing int) float64 {
	switch {
	case missing == 0:
		return ScoreInformative
	case missing == 1 && total > 1:
		return ScorePartial
	}
	ratio := float64(total-missing) / float64(total)
	return 0.4 + 0.4*ratio
}
