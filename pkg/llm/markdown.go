package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks that reasoning models
// prepend to their answer.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// fencePattern matches a response wrapped entirely in one code fence.
var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```\\s*$")

// CleanMarkdown strips leading <think> blocks and a single enclosing code
// fence from a model response, leaving the markdown body.
func CleanMarkdown(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = strings.TrimSpace(cleaned)

	if m := fencePattern.FindStringSubmatch(cleaned); len(m) == 2 {
		cleaned = strings.TrimSpace(m[1])
	}
	return cleaned
}
