package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeLLMJSON decodes the JSON object in a model reply into target. Replies
// wrapped in a ```json fence or a sentence of prose are unwrapped first.
func DecodeLLMJSON(content string, target any) error {
	payload := strings.TrimSpace(content)
	if payload == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(payload), target)
	if err == nil {
		return nil
	}
	inner := extractObject(payload)
	if inner == payload {
		return fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(payload))
	}
	if err := json.Unmarshal([]byte(inner), target); err != nil {
		return fmt.Errorf("%w (extracted payload snippet: %s)", err, summarizePayloadSnippet(inner))
	}
	return nil
}

// extractObject returns the span from the first '{' to the last '}' once any
// code fence is removed, or s unchanged when there is no such span.
func extractObject(s string) string {
	body := s
	if rest, ok := strings.CutPrefix(body, "```"); ok {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		body = strings.TrimSpace(rest)
	}
	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return s
	}
	return body[start : end+1]
}

// summarizePayloadSnippet collapses whitespace and cuts content to 160 runes
// for error messages.
func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > 160 {
		return string(runes[:160]) + "..."
	}
	return clean
}
