package intent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCalculatorURL is the public math.js evaluation endpoint
const DefaultCalculatorURL = "https://api.mathjs.org/v4/"

// Calculator evaluates expressions with a remote math.js-compatible service,
// falling back to the local evaluator when the service is unreachable.
type Calculator struct {
	remoteURL  string
	httpClient *http.Client
}

// NewCalculator creates a calculator. An empty remoteURL evaluates locally only.
func NewCalculator(remoteURL string, timeout time.Duration) *Calculator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Calculator{
		remoteURL: remoteURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Calculate returns the formatted result of expr
func (c *Calculator) Calculate(ctx context.Context, expr string) (string, error) {
	if c.remoteURL != "" {
		result, err := c.remote(ctx, expr)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Debug().Err(err).Str("expr", expr).Msg("remote calculator unavailable, evaluating locally")
	}

	v, err := Evaluate(expr)
	if err != nil {
		return "", err
	}
	return FormatNumber(v), nil
}

func (c *Calculator) remote(ctx context.Context, expr string) (string, error) {
	endpoint := c.remoteURL + "?expr=" + url.QueryEscape(expr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calculator request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read calculator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calculator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	result := strings.TrimSpace(string(body))
	switch result {
	case "", "NaN", "Infinity", "-Infinity":
		return "", fmt.Errorf("calculator returned %q", result)
	}

	if v, err := strconv.ParseFloat(result, 64); err == nil {
		return FormatNumber(v), nil
	}
	return result, nil
}
