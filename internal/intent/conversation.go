package intent

import (
	"strings"
	"unicode"
)

var greetingOpeners = map[string]bool{
	"hi": true, "hello": true, "hey": true, "hiya": true, "heya": true, "howdy": true,
	"yo": true, "sup": true, "greetings": true, "hallo": true, "aloha": true,
	"shalom": true, "hola": true, "bonjour": true, "ciao": true, "salut": true, "namaste": true,
}

var formalGreetings = []string{"good morning", "good afternoon", "good evening", "good day", "greetings"}

var casualGreetings = map[string]bool{
	"hey": true, "heya": true, "hiya": true, "howdy": true, "yo": true, "sup": true, "hola": true,
}

var thanksWords = map[string]bool{
	"thank": true, "thanks": true, "thx": true, "ty": true, "appreciate": true,
	"appreciated": true, "grateful": true, "cheers": true, "toda": true,
	"merci": true, "gracias": true, "danke": true,
}

var enthusiasticThanks = []string{"so much", "a lot", "very much", "a million", "really", "awesome", "amazing"}

var systemInfoPhrases = []string{
	"what can you do",
	"what do you do",
	"your capabilities",
	"how do you work",
	"who are you",
	"what are you",
	"introduce yourself",
	"tell me about yourself",
	"what is bridge",
	"what's bridge",
	"who is bridge",
	"about bridge",
	"how does bridge work",
	"what can bridge do",
}

var unclearWords = map[string]bool{
	"help": true, "problem": true, "problems": true, "stuck": true, "error": true,
	"errors": true, "issue": true, "issues": true, "broken": true, "bug": true,
	"working": true, "trouble": true, "confused": true, "lost": true,
	"how": true, "what": true, "why": true, "huh": true, "hmm": true, "idk": true,
}

var frustratedWords = map[string]bool{
	"problem": true, "problems": true, "stuck": true, "error": true, "errors": true,
	"issue": true, "issues": true, "broken": true, "bug": true, "working": true,
	"trouble": true, "confused": true, "lost": true,
}

var unclearFiller = map[string]bool{
	"me": true, "i": true, "i'm": true, "im": true, "am": true, "need": true,
	"with": true, "a": true, "an": true, "the": true, "it": true, "it's": true,
	"its": true, "not": true, "please": true, "pls": true, "my": true, "this": true,
	"some": true, "got": true, "have": true, "so": true, "is": true,
}

const (
	maxGreetingWords   = 3
	maxThanksWords     = 6
	maxSystemInfoWords = 8
	maxUnclearWords    = 3
)

// normalize lowercases text and turns punctuation other than apostrophes into spaces
func normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

// containsPhrase matches phrase on word boundaries
func containsPhrase(norm, phrase string) bool {
	return strings.Contains(" "+norm+" ", " "+phrase+" ")
}

func isGreeting(norm string, words []string) bool {
	if len(words) == 0 || len(words) > maxGreetingWords {
		return false
	}
	if greetingOpeners[words[0]] {
		return true
	}
	for _, g := range formalGreetings {
		if strings.HasPrefix(norm, g) {
			return true
		}
	}
	return false
}

func greetingTone(norm string, words []string) Tone {
	for _, g := range formalGreetings {
		if strings.HasPrefix(norm, g) {
			return ToneFormal
		}
	}
	if casualGreetings[words[0]] || containsPhrase(norm, "what's up") {
		return ToneCasual
	}
	return ToneNeutral
}

func isThanks(words []string) bool {
	if len(words) == 0 || len(words) > maxThanksWords {
		return false
	}
	for _, w := range words {
		if thanksWords[w] {
			return true
		}
	}
	return false
}

func thanksTone(norm string, words []string) Tone {
	for _, p := range enthusiasticThanks {
		if containsPhrase(norm, p) {
			return ToneEnthusiastic
		}
	}
	if len(words) == 1 {
		return ToneSimple
	}
	return ToneNeutral
}

func isSystemInfo(norm string, words []string) bool {
	if len(words) > maxSystemInfoWords {
		return false
	}
	for _, p := range systemInfoPhrases {
		if containsPhrase(norm, p) {
			return true
		}
	}
	return false
}

// isUnclear matches very short prompts made only of trouble words and filler
func isUnclear(words []string) bool {
	if len(words) == 0 || len(words) > maxUnclearWords {
		return false
	}
	signal := false
	for _, w := range words {
		switch {
		case unclearWords[w]:
			signal = true
		case unclearFiller[w]:
		default:
			return false
		}
	}
	return signal
}

func unclearTone(words []string) Tone {
	help := false
	for _, w := range words {
		if frustratedWords[w] {
			return ToneFrustrated
		}
		if w == "help" {
			help = true
		}
	}
	if help {
		return ToneHelpSeeking
	}
	return ToneVague
}
