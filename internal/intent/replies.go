package intent

import "strings"

var replies = map[Kind]map[Tone]string{
	KindGreeting: {
		ToneFormal:  "Hello! Great to meet you. I'm Bridge, and I can help with academic, business, technical, everyday and creative questions. What would you like to know?",
		ToneCasual:  "Hey and welcome! I'm Bridge. Ask me anything, from quick facts to in-depth explanations.",
		ToneNeutral: "Hi there! I'm Bridge, your question-answering assistant. What can I help you with today?",
	},
	KindThanks: {
		ToneEnthusiastic: "My pleasure! I'm really glad that was useful. Feel free to ask anything else.",
		ToneSimple:       "You're very welcome! Let me know if there's anything else.",
		ToneNeutral:      "Glad I could help! Is there anything else you'd like to know?",
	},
	KindUnclear: {
		ToneFrustrated:  "Sounds like there's something you want to solve. Could you tell me what you're working on and what went wrong?",
		ToneHelpSeeking: "I'm here to help! Could you tell me a bit more about what you need?",
		ToneVague:       "Let's work on this together. What topic or question do you have in mind?",
	},
	KindSystemInfo: {
		ToneNeutral: "I'm Bridge. I send each question to the model best suited to it: quick questions go to a fast model, " +
			"complex ones to an advanced model, and answers that fall short are upgraded automatically. " +
			"Questions that were already answered are served from a cache. Pick a vibe (academic, business, " +
			"technical, daily or creative) and an answer length to shape the response.",
	},
	KindNonEnglish: {
		ToneNeutral: "I currently work best with questions in English. Could you please rephrase your question in English?",
	},
}

// Reply returns the canned reply for a conversational intent, or "" for
// intents that need computation (arithmetic) or a model (none).
func Reply(in Intent) string {
	byTone, ok := replies[in.Kind]
	if !ok {
		return ""
	}
	if r, ok := byTone[in.Tone]; ok {
		return r
	}
	if r, ok := byTone[ToneNeutral]; ok {
		return r
	}
	return byTone[ToneVague]
}

// ReplyFor classifies the tone of prompt for kind and returns the matching reply
func ReplyFor(kind Kind, prompt string) string {
	norm := normalize(prompt)
	words := strings.Fields(norm)
	if len(words) == 0 {
		words = []string{""}
	}

	var tone Tone
	switch kind {
	case KindGreeting:
		tone = greetingTone(norm, words)
	case KindThanks:
		tone = thanksTone(norm, words)
	case KindUnclear:
		tone = unclearTone(words)
	default:
		tone = ToneNeutral
	}
	return Reply(Intent{Kind: kind, Tone: tone})
}
