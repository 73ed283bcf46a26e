package scanning

import (
	"encoding/json"
	"strings"
)

// parseReceiptFields decodes an LLM response into ReceiptFields. Models are
// asked for bare JSON but frequently wrap it in markdown fences or surround it
// with narration, so the parser strips fences and then takes the span from the
// first { to the last }.
func parseReceiptFields(text string) (*ReceiptFields, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present. The longer marker has to be
	// checked first or "```json" loses only its backticks.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }. If the
	// response contains several brace-delimited groups the span swallows
	// everything between the outermost pair; that is accepted behavior.
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, &ParseError{Reason: "no JSON object found in response"}
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, &ParseError{Reason: "no JSON object found in response"}
	}

	text = text[startIdx : endIdx+1]

	var fields ReceiptFields
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	return &fields, nil
}
