package analyze

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const genericRejection = "The screenshots could not be analyzed. Please upload clearer Call of Duty Mobile screenshots."

// Normalize turns raw model text into the analysis document for kind. Markdown
// code fences are removed, an "error" field becomes an
// UpstreamValidationError, and required top-level fields are checked.
func Normalize(kind Kind, raw string) (json.RawMessage, error) {
	rules, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	text := stripFences(raw)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: unparseable model output: %v", ErrUpstream, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: model output is not an object", ErrUpstream)
	}

	if msg, rejected := rejection(fields["error"]); rejected {
		return nil, &UpstreamValidationError{Message: msg}
	}
	for _, key := range rules.required {
		if !present(fields[key]) {
			return nil, &UpstreamValidationError{Message: rules.invalid}
		}
	}
	return json.RawMessage(text), nil
}

// stripFences removes a leading ``` or ```json line and a trailing ```.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "{[") {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// rejection reports whether an error value is truthy and the message to show.
func rejection(raw json.RawMessage) (string, bool) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return "", false
	}
	switch string(v) {
	case "null", "false", "0", `""`:
		return "", false
	}
	var msg string
	if err := json.Unmarshal(v, &msg); err == nil {
		if strings.TrimSpace(msg) == "" {
			return "", false
		}
		return msg, true
	}
	return genericRejection, true
}

func present(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}
