// Package extract pulls a JSON payload out of free-form model output.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencePatterns are tried in order; the first structural match wins.
var fencePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n```"),
	regexp.MustCompile("(?s)```json\\n(.*?)\\n```"),
	regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n```"),
	regexp.MustCompile("(?s)```\\n(.*?)\\n```"),
	regexp.MustCompile("(?s)```json\\s*(.*?)```"),
	regexp.MustCompile("(?s)```\\s*(.*?)```"),
}

var outerBraces = regexp.MustCompile(`(?s)\{.*\}`)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// JSON returns the best-effort JSON text found in raw. When nothing parses
// it returns raw trimmed, so the caller fails validation instead of
// receiving invented structure.
func JSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}

	for _, re := range fencePatterns {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if s, ok := parseable(strings.TrimSpace(m[1])); ok {
			return s
		}
	}

	if m := outerBraces.FindString(raw); m != "" {
		if s, ok := parseable(strings.TrimSpace(m)); ok {
			return s
		}
	}

	return trimmed
}

func parseable(s string) (string, bool) {
	if json.Valid([]byte(s)) {
		return s, true
	}
	cleaned := newlines.Replace(s)
	if json.Valid([]byte(cleaned)) {
		return cleaned, true
	}
	return "", false
}
