package intent

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotArithmetic is returned when a prompt is not a standalone arithmetic expression
var ErrNotArithmetic = errors.New("not an arithmetic expression")

// list and request vocabulary marks enumerations ("list 5 examples"), never math
var listVocabulary = map[string]bool{
	"list": true, "show": true, "example": true, "examples": true, "step": true,
	"steps": true, "ways": true, "ideas": true, "tips": true, "reasons": true,
	"give": true, "name": true, "names": true, "top": true, "types": true,
	"kinds": true, "facts": true, "items": true, "things": true, "options": true,
	"table": true, "write": true, "explain": true,
}

// filler may surround an expression without changing it
var arithmeticFiller = map[string]bool{
	"what": true, "what's": true, "whats": true, "is": true, "calculate": true,
	"calc": true, "compute": true, "evaluate": true, "solve": true, "equals": true,
	"equal": true, "how": true, "much": true, "the": true, "result": true,
	"please": true, "tell": true, "me": true, "answer": true, "value": true,
	"can": true, "you": true, "find": true, "does": true, "do": true,
}

var operatorWords = map[string]string{
	"plus":     "+",
	"add":      "+",
	"minus":    "-",
	"subtract": "-",
	"times":    "*",
	"multiply": "*",
	"mult":     "*",
	"x":        "*",
	"divide":   "/",
	"over":     "/",
	"mod":      "%",
	"modulo":   "%",
}

var unitWords = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]int64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// maxSpokenNumber bounds numbers written in words; larger phrases are rejected
const maxSpokenNumber = 1_000_000_000_000

var scaleWords = map[string]int64{
	"thousand": 1_000,
	"million":  1_000_000,
}

var functionNames = map[string]bool{
	"sqrt": true, "abs": true, "pow": true, "sin": true, "cos": true, "tan": true,
	"log": true, "ln": true, "exp": true, "round": true, "floor": true, "ceil": true,
}

// phrase operators, replaced before word splitting; order matters
var phraseOperators = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`\braised to the power of\b`), " ^ "},
	{regexp.MustCompile(`\bto the power of\b`), " ^ "},
	{regexp.MustCompile(`\braised to\b`), " ^ "},
	{regexp.MustCompile(`\bmultiplied by\b`), " * "},
	{regexp.MustCompile(`\bdivided by\b`), " / "},
	{regexp.MustCompile(`\bsquare root of\b`), " sqrt "},
	{regexp.MustCompile(`\bsquared\b`), " ^ 2 "},
	{regexp.MustCompile(`\bcubed\b`), " ^ 3 "},
}

var (
	exprPieces     = regexp.MustCompile(`[0-9]*\.?[0-9]+|[a-z']+|[-+*/%^(),]`)
	equationForm   = regexp.MustCompile(`=\s*[^\s?!.]`)
	symbolReplacer = strings.NewReplacer("×", "*", "÷", "/", "−", "-", "**", "^")
)

type exprToken struct {
	text string
	kind tokenKind
}

// ExtractExpression pulls a standalone arithmetic expression out of a prompt.
// Digit and word forms are both accepted: "twelve plus seven" yields "12 + 7".
// Every word must be a number, operator, function or known filler; the result
// must contain a digit and an operator and must parse.
func ExtractExpression(prompt string) (string, error) {
	text := symbolReplacer.Replace(strings.ToLower(strings.TrimSpace(prompt)))
	if text == "" || equationForm.MatchString(text) {
		return "", ErrNotArithmetic
	}

	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !(r >= 'a' && r <= 'z' || r == '\'') }) {
		if listVocabulary[w] {
			return "", ErrNotArithmetic
		}
	}

	for _, op := range phraseOperators {
		text = op.pattern.ReplaceAllString(text, op.replace)
	}

	pieces := exprPieces.FindAllString(text, -1)
	tokens, err := convertPieces(pieces)
	if err != nil {
		return "", err
	}
	if !hasOperation(tokens) {
		return "", ErrNotArithmetic
	}

	expr := renderTokens(tokens)
	if _, err := parseExpression(expr); err != nil {
		return "", ErrNotArithmetic
	}
	return expr, nil
}

// IsArithmetic reports whether prompt is a standalone arithmetic expression
func IsArithmetic(prompt string) bool {
	_, err := ExtractExpression(prompt)
	return err == nil
}

func convertPieces(pieces []string) ([]exprToken, error) {
	var tokens []exprToken

	for i := 0; i < len(pieces); i++ {
		p := pieces[i]

		switch {
		case isNumberLiteral(p):
			tokens = append(tokens, exprToken{text: p, kind: tokNumber})

		case isNumberWord(p):
			v, next, ok := parseNumberWords(pieces, i)
			if !ok {
				return nil, ErrNotArithmetic
			}
			tokens = append(tokens, exprToken{text: strconv.FormatInt(v, 10), kind: tokNumber})
			i = next - 1

		case functionNames[p]:
			tokens = append(tokens, exprToken{text: p, kind: tokIdent})
			// "sqrt 16" becomes "sqrt(16)"
			if i+1 < len(pieces) && isNumberLiteral(pieces[i+1]) {
				tokens = append(tokens,
					exprToken{text: "(", kind: tokLParen},
					exprToken{text: pieces[i+1], kind: tokNumber},
					exprToken{text: ")", kind: tokRParen},
				)
				i++
			}

		case operatorWords[p] != "":
			tokens = append(tokens, exprToken{text: operatorWords[p], kind: tokOperator})

		case arithmeticFiller[p]:

		case len(p) == 1 && strings.ContainsAny(p, "+-*/%^"):
			tokens = append(tokens, exprToken{text: p, kind: tokOperator})
		case p == "(":
			tokens = append(tokens, exprToken{text: p, kind: tokLParen})
		case p == ")":
			tokens = append(tokens, exprToken{text: p, kind: tokRParen})
		case p == ",":
			tokens = append(tokens, exprToken{text: p, kind: tokComma})

		default:
			return nil, ErrNotArithmetic
		}
	}
	return tokens, nil
}

func isNumberLiteral(s string) bool {
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

func isNumberWord(w string) bool {
	_, unit := unitWords[w]
	_, tens := tensWords[w]
	return unit || tens
}

// parseNumberWords reads a compound number starting at pieces[i], e.g.
// "two hundred and forty one". It returns the value and the index after it,
// or false once the value exceeds maxSpokenNumber.
func parseNumberWords(pieces []string, i int) (int64, int, bool) {
	var total, current int64
	j := i
	for ; j < len(pieces); j++ {
		w := pieces[j]
		if v, ok := unitWords[w]; ok {
			current += v
			continue
		}
		if v, ok := tensWords[w]; ok {
			current += v
			continue
		}
		if w == "hundred" {
			if current == 0 {
				current = 1
			}
			current *= 100
			if current > maxSpokenNumber {
				return 0, j, false
			}
			continue
		}
		if scale, ok := scaleWords[w]; ok {
			if current == 0 {
				current = 1
			}
			if current > maxSpokenNumber/scale {
				return 0, j, false
			}
			total += current * scale
			current = 0
			if total > maxSpokenNumber {
				return 0, j, false
			}
			continue
		}
		if w == "and" && j+1 < len(pieces) && isNumberWord(pieces[j+1]) {
			continue
		}
		break
	}
	if total+current > maxSpokenNumber {
		return 0, j, false
	}
	return total + current, j, true
}

// hasOperation requires a binary operator between operands or a function call
func hasOperation(tokens []exprToken) bool {
	hasDigit := false
	for i, t := range tokens {
		if t.kind == tokNumber {
			hasDigit = true
		}
		if t.kind == tokIdent && i+1 < len(tokens) && tokens[i+1].kind == tokLParen {
			return true
		}
		if t.kind == tokOperator && i > 0 && i+1 < len(tokens) {
			prev := tokens[i-1].kind
			if prev == tokNumber || prev == tokRParen {
				return hasDigit
			}
		}
	}
	return false
}

// renderTokens joins tokens as "a + b", keeping unary signs and calls tight
func renderTokens(tokens []exprToken) string {
	var b strings.Builder
	for i, t := range tokens {
		switch {
		case t.kind == tokOperator && !isUnary(tokens, i):
			b.WriteString(" " + t.text + " ")
		case t.kind == tokComma:
			b.WriteString(", ")
		default:
			b.WriteString(t.text)
		}
	}
	return strings.TrimSpace(b.String())
}

func isUnary(tokens []exprToken, i int) bool {
	if tokens[i].text != "-" && tokens[i].text != "+" {
		return false
	}
	if i == 0 {
		return true
	}
	switch tokens[i-1].kind {
	case tokOperator, tokLParen, tokComma:
		return true
	}
	return false
}
