package llm

import "strings"

// CleanJSONBlock removes markdown code fences models put around JSON even
// when told not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if strings.HasPrefix(strings.ToLower(text), "json") {
		text = text[len("json"):]
	} else if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		// other language tag, e.g. "text"
		if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
