package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the
// start of LLM responses from reasoning models.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractSQL strips reasoning tags and markdown code fences from an LLM
// response, returning the raw SQL text. Models frequently wrap SQL in
// ```sql fences despite being told not to.
func ExtractSQL(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "```sql") {
		cleaned = cleaned[len("```sql"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}
