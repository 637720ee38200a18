package llm

import "strings"

// ExtractJSON pulls the first JSON object or array out of an oracle
// completion. Models wrap payloads in ```json fences or surround them with
// prose; the upstream contract only promises "mostly JSON".
func ExtractJSON(response string) string {
	cleaned := response
	if strings.Contains(response, "```json") {
		cleaned = strings.ReplaceAll(cleaned, "```json", "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
	} else if strings.Contains(response, "```") {
		cleaned = strings.ReplaceAll(cleaned, "```", "")
	}

	if span := balancedSpan(cleaned); span != "" {
		return span
	}

	return strings.TrimSpace(cleaned)
}

// balancedSpan returns the first balanced {...} or [...] span, tracking
// string literals so braces inside JSON strings don't break the count.
func balancedSpan(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	return ""
}
