package intent

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrSyntax is returned for malformed expressions
	ErrSyntax = errors.New("invalid expression")
	// ErrDivisionByZero is returned for x/0 and x%0
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUndefined is returned when the result is not a finite real number
	ErrUndefined = errors.New("result is undefined")
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOperator
	tokLParen
	tokRParen
	tokComma
)

var precedence = map[string]int{
	"+": 1, "-": 1,
	"*": 2, "/": 2, "%": 2,
	"^": 3,
}

// Evaluate computes an arithmetic expression over float64
func Evaluate(expr string) (float64, error) {
	n, err := parseExpression(expr)
	if err != nil {
		return 0, err
	}
	v, err := n.eval()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrUndefined
	}
	return v, nil
}

// FormatNumber renders integral values without decimals and rounds the rest
// to 10 fractional digits
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	rounded := math.Round(v*1e10) / 1e10
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

type node interface {
	eval() (float64, error)
}

type numberNode float64

func (n numberNode) eval() (float64, error) { return float64(n), nil }

type unaryNode struct {
	op string
	x  node
}

func (n unaryNode) eval() (float64, error) {
	v, err := n.x.eval()
	if err != nil {
		return 0, err
	}
	if n.op == "-" {
		return -v, nil
	}
	return v, nil
}

type binaryNode struct {
	op   string
	l, r node
}

func (n binaryNode) eval() (float64, error) {
	l, err := n.l.eval()
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval()
	if err != nil {
		return 0, err
	}

	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Mod(l, r), nil
	case "^":
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.op)
}

type callNode struct {
	name string
	args []node
}

var unaryFuncs = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"ln":    math.Log,
	"exp":   math.Exp,
	"round": math.Round,
	"floor": math.Floor,
	"ceil":  math.Ceil,
}

func (n callNode) eval() (float64, error) {
	args := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval()
		if err != nil {
			return 0, err
		}
		args[i] = v
	}

	switch n.name {
	case "pow":
		if len(args) != 2 {
			return 0, fmt.Errorf("%w: pow takes 2 arguments", ErrSyntax)
		}
		return math.Pow(args[0], args[1]), nil
	case "log":
		switch len(args) {
		case 1:
			return math.Log10(args[0]), nil
		case 2:
			return math.Log(args[0]) / math.Log(args[1]), nil
		}
		return 0, fmt.Errorf("%w: log takes 1 or 2 arguments", ErrSyntax)
	}

	f, ok := unaryFuncs[n.name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown function %q", ErrSyntax, n.name)
	}
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s takes 1 argument", ErrSyntax, n.name)
	}
	return f(args[0]), nil
}

func lex(expr string) ([]exprToken, error) {
	var tokens []exprToken
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			tokens = append(tokens, exprToken{text: expr[i:j], kind: tokNumber})
			i = j
		case c >= 'a' && c <= 'z':
			j := i
			for j < len(expr) && expr[j] >= 'a' && expr[j] <= 'z' {
				j++
			}
			tokens = append(tokens, exprToken{text: expr[i:j], kind: tokIdent})
			i = j
		case strings.IndexByte("+-*/%^", c) >= 0:
			tokens = append(tokens, exprToken{text: string(c), kind: tokOperator})
			i++
		case c == '(':
			tokens = append(tokens, exprToken{text: "(", kind: tokLParen})
			i++
		case c == ')':
			tokens = append(tokens, exprToken{text: ")", kind: tokRParen})
			i++
		case c == ',':
			tokens = append(tokens, exprToken{text: ",", kind: tokComma})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, c)
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []exprToken
	pos    int
}

func parseExpression(expr string) (node, error) {
	tokens, err := lex(strings.ToLower(expr))
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	p := &parser{tokens: tokens}
	n, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, p.tokens[p.pos].text)
	}
	return n, nil
}

func (p *parser) peek() *exprToken {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

// parseBinary is precedence climbing; ^ is right associative
func (p *parser) parseBinary(minPrec int) (node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t == nil || t.kind != tokOperator {
			return lhs, nil
		}
		prec := precedence[t.text]
		if prec < minPrec {
			return lhs, nil
		}
		p.pos++

		next := prec + 1
		if t.text == "^" {
			next = prec
		}
		rhs, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		lhs = binaryNode{op: t.text, l: lhs, r: rhs}
	}
}

// parseUnary binds a sign looser than ^, so -2^2 is -(2^2)
func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t != nil && t.kind == tokOperator && (t.text == "-" || t.text == "+") {
		p.pos++
		x, err := p.parseBinary(precedence["^"])
		if err != nil {
			return nil, err
		}
		return unaryNode{op: t.text, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	if t == nil {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	p.pos++

	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, t.text)
		}
		return numberNode(v), nil

	case tokLParen:
		n, err := p.parseBinary(1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil

	case tokIdent:
		if !functionNames[t.text] {
			return nil, fmt.Errorf("%w: unknown function %q", ErrSyntax, t.text)
		}
		if err := p.expect(tokLParen); err != nil {
			return nil, err
		}
		var args []node
		for {
			arg, err := p.parseBinary(1)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if next := p.peek(); next != nil && next.kind == tokComma {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return callNode{name: t.text, args: args}, nil
	}

	return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
}

func (p *parser) expect(kind tokenKind) error {
	t := p.peek()
	if t == nil || t.kind != kind {
		return fmt.Errorf("%w: missing parenthesis", ErrSyntax)
	}
	p.pos++
	return nil
}
