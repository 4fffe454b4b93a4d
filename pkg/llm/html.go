package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks that reasoning models emit before the answer.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// fencePattern matches a fenced code block, optionally tagged html.
var fencePattern = regexp.MustCompile("(?s)```(?:html|HTML)?[ \t]*\r?\n(.*?)\r?\n?```")

// ExtractHTML returns the markup from a model response that may wrap it in
// <think> tags, markdown fences or surrounding prose. Responses without a fence
// are returned trimmed.
func ExtractHTML(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if m := fencePattern.FindStringSubmatch(cleaned); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(cleaned)
	if i := indexFold(trimmed, "<!doctype html"); i > 0 {
		return trimmed[i:]
	}
	return trimmed
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
