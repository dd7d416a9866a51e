package llm

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotRetriable marks a provider error the shape-fallback loop must not
// retry (auth/quota/rate-limit flavored, or no reduction left to try).
var ErrNotRetriable = errors.New("llm: provider error is not shape-retriable")

// RequestError wraps a provider HTTP failure with enough context for
// classification: status code (if known) and the raw error text (message,
// JSON body, response text concatenated).
type RequestError struct {
	StatusCode int
	Text       string
	Cause      error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return "llm: provider error (status " + strconv.Itoa(e.StatusCode) + "): " + e.Text
	}
	return "llm: provider error: " + e.Text
}

func (e *RequestError) Unwrap() error { return e.Cause }

var authIndicators = []string{"api key", "unauthorized", "forbidden", "quota", "rate limit"}

var shapeIndicators = []string{
	"invalid", "unsupported", "unknown", "unrecognized", "unexpected",
	"not allowed", "bad request", "parameter", "params", "setting",
	"schema", "tool", "temperature", "extra_body",
}

// isAuthError reports whether the error text carries an auth/quota/rate-
// limit flavor; such errors never trigger shape-fallback retry.
func isAuthError(text string) bool {
	lower := strings.ToLower(text)
	for _, tok := range authIndicators {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// isRateLimitError reports whether the error specifically indicates a rate
// limit, used to drive the cooldown/fallback-model probing enrichment.
func isRateLimitError(statusCode int, text string) bool {
	if statusCode == 429 {
		return true
	}
	return strings.Contains(strings.ToLower(text), "rate limit")
}

// isRetriableShapeError classifies whether the given error should trigger
// the next shape-fallback reduction: never for auth-flavored errors; for a
// 400/415/422 (or unknown status) carrying a shape-hint token.
func isRetriableShapeError(e *RequestError) bool {
	if e == nil {
		return false
	}
	if isAuthError(e.Text) {
		return false
	}
	hasHint := false
	lower := strings.ToLower(e.Text)
	for _, tok := range shapeIndicators {
		if strings.Contains(lower, tok) {
			hasHint = true
			break
		}
	}
	if e.StatusCode == 0 {
		return hasHint
	}
	switch e.StatusCode {
	case 400, 415, 422:
		return hasHint
	default:
		return false
	}
}
