package ai

import "strings"

// ExtractJSON removes markdown code fences and surrounding prose from an AI response,
// keeping the span from the first { to the last }
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}

	endIdx := strings.LastIndex(response, "}")
	if endIdx == -1 || endIdx < startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
