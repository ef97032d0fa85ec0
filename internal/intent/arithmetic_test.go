package intent

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractExpression(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"twelve plus seven", "12 + 7"},
		{"two plus three", "2 + 3"},
		{"5+3", "5 + 3"},
		{"what is 10 divided by 4?", "10 / 4"},
		{"calculate (1 + 2) * 3", "(1 + 2) * 3"},
		{"twenty one times three", "21 * 3"},
		{"one hundred and five minus five", "105 - 5"},
		{"two thousand three hundred plus one", "2300 + 1"},
		{"three million plus one", "3000000 + 1"},
		{"seven mod three", "7 % 3"},
		{"2 to the power of 10", "2 ^ 10"},
		{"what's 9 squared", "9 ^ 2"},
		{"square root of 16", "sqrt(16)"},
		{"sqrt(2) * 2", "sqrt(2) * 2"},
		{"pow(2, 8)", "pow(2, 8)"},
		{"3 x 4", "3 * 4"},
		{"10 ÷ 2", "10 / 2"},
		{"-5 + 3", "-5 + 3"},
		{"2 * -3", "2 * -3"},
		{"6 multiplied by 7 =", "6 * 7"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			got, err := ExtractExpression(tt.prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsArithmetic(tt.prompt))
		})
	}
}

func TestExtractExpression_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"bare number", "42"},
		{"negative number", "-5"},
		{"year in a sentence", "what happened in 1969"},
		{"list vocabulary", "list 3 + 4 examples"},
		{"steps", "show me 2 steps"},
		{"enumeration", "give me 10 ideas for dinner"},
		{"equation", "solve 2x + 3 = 7"},
		{"plain question", "how does photosynthesis work"},
		{"operator word without numbers", "plus minus times"},
		{"dangling operator", "5 +"},
		{"unknown function", "foo(3)"},
		{"empty", "   "},
		{"words around numbers", "I have 3 apples and 2 pears"},
		{"spoken number overflow", "one hundred hundred hundred hundred hundred hundred hundred hundred hundred hundred plus one"},
		{"spoken scale overflow", "nine hundred thousand million plus one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractExpression(tt.prompt)
			assert.True(t, errors.Is(err, ErrNotArithmetic), "got %v", err)
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"12 + 7", 19},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"7 % 3", 1},
		{"2 ^ 3 ^ 2", 512},
		{"-2 ^ 2", -4},
		{"2 * -3", -6},
		{"--4", 4},
		{"sqrt(16) + abs(-3)", 7},
		{"pow(2, 10)", 1024},
		{"log(1000)", 3},
		{"log(8, 2)", 3},
		{"ln(1)", 0},
		{"round(2.5)", 3},
		{"floor(2.7) + ceil(2.1)", 5},
		{"0.1 + 0.2", 0.30000000000000004},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		expr string
		err  error
	}{
		{"1 / 0", ErrDivisionByZero},
		{"5 % 0", ErrDivisionByZero},
		{"sqrt(-1)", ErrUndefined},
		{"log(0)", ErrUndefined},
		{"(1 + 2", ErrSyntax},
		{"1 + ", ErrSyntax},
		{"2 3", ErrSyntax},
		{"pow(2)", ErrSyntax},
		{"nope(1)", ErrSyntax},
		{"1 $ 2", ErrSyntax},
		{"", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{19, "19"},
		{-4, "-4"},
		{2.5, "2.5"},
		{1.0 / 3.0, "0.3333333333"},
		{0.1 + 0.2, "0.3"},
		{math.Copysign(0, -1), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.v))
		})
	}
}

func TestCalculator_Local(t *testing.T) {
	c := NewCalculator("", 0)

	got, err := c.Calculate(context.Background(), "12 + 7")
	require.NoError(t, err)
	assert.Equal(t, "19", got)

	_, err = c.Calculate(context.Background(), "1 / 0")
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCalculator_Remote(t *testing.T) {
	var gotExpr string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotExpr = r.URL.Query().Get("expr")
		w.Write([]byte("19"))
	}))
	defer server.Close()

	c := NewCalculator(server.URL, time.Second)
	got, err := c.Calculate(context.Background(), "12 + 7")
	require.NoError(t, err)
	assert.Equal(t, "19", got)
	assert.Equal(t, "12 + 7", gotExpr)
}

func TestCalculator_RemoteFailureFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"infinite result", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("Infinity"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewCalculator(server.URL, time.Second)
			got, err := c.Calculate(context.Background(), "6 * 7")
			require.NoError(t, err)
			assert.Equal(t, "42", got)
		})
	}
}

func TestCalculator_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewCalculator(url, time.Second)
	got, err := c.Calculate(context.Background(), "2 ^ 8")
	require.NoError(t, err)
	assert.Equal(t, "256", got)
}
