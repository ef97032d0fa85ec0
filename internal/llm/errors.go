package llm

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrBudgetExceeded indicates the budget limit has been reached
	ErrBudgetExceeded = errors.New("LLM budget exceeded")
	// ErrRateLimited indicates too many requests
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNoProvider indicates a tier names a provider that is not configured
	ErrNoProvider = errors.New("no provider configured")
)

// Canned answers for failed calls. Provider error text is never shown to users.
const (
	apologyProviderStatus = "I'm sorry, I encountered an error processing your request."
	apologyInternal       = "I encountered an error while processing your request."
)

// ProviderError is a non-2xx reply from a provider
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func newProviderError(p Provider, status int, body []byte) *ProviderError {
	return &ProviderError{Provider: p, StatusCode: status, Message: sanitizeErrorBody(string(body))}
}

// apologyFor picks the user-facing text for a failed call
func apologyFor(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return apologyProviderStatus
	}
	return apologyInternal
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]+`),
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`"x-api-key"\s*:\s*"[^"]*"`),
}

// sanitizeErrorBody redacts API keys echoed back in provider error bodies
func sanitizeErrorBody(body string) string {
	for _, re := range secretPatterns {
		body = re.ReplaceAllString(body, "[REDACTED]")
	}
	return body
}
