// Package logging holds helpers that make values safe to write to logs.
package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxPromptLogLength is the maximum number of bytes of a prompt or feedback text to log.
	MaxPromptLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Authorization header values sent to LLM providers
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_.]+`)

	// OpenAI (sk-..., sk-proj-...) and Anthropic (sk-ant-...) secret keys
	providerKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9\-_]{16,}`)

	// api_key=..., x-api-key: ...
	apiKeyPattern = regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|apikey)([=:]\s*)[A-Za-z0-9\-_]{16,}`)

	// user:pass@host in postgres:// and redis:// URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]*:[^@\s]+@[^/\s]+`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeConnectionString removes credentials from a database or Redis URL.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError returns the error message with credentials and API keys removed.
// Use this before logging errors from the database, Redis or an LLM provider.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redactSecrets(err.Error())
}

// SanitizePrompt flattens whitespace, truncates and redacts a user supplied text
// such as a generation prompt or feedback content.
func SanitizePrompt(text string) string {
	if text == "" {
		return ""
	}
	flat := strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	return redactSecrets(TruncateString(flat, MaxPromptLogLength))
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func redactSecrets(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}${2}"+RedactedText)
	s = providerKeyPattern.ReplaceAllString(s, RedactedText)
	s = connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
	return s
}
