package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// CleanJSONResponse strips ```json / ``` fences and any prose around the
// outermost JSON object, and repairs trailing commas.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```JSON")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
		response = strings.TrimSpace(response)
	}

	return extractJSON(response)
}

// StripFences removes a surrounding code fence from free text.
func StripFences(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	if nl := strings.IndexByte(response, '\n'); nl >= 0 {
		response = response[nl+1:]
	} else {
		response = strings.TrimPrefix(response, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(response), "```"))
}

func extractJSON(response string) string {
	if json.Valid([]byte(response)) {
		return response
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}

	// Find the matching closing brace, ignoring braces inside strings.
	depth := 0
	inString := false
	escaped := false
	end := 0
	for i := start; i < len(response) && end == 0; i++ {
		ch := response[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
	}
	if end == 0 {
		return response
	}

	candidate := trailingComma.ReplaceAllString(response[start:end], "$1")
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return response
}
