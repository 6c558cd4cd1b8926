// Package completion normalizes raw provider responses: fence-stripping
// and content-length computation for OCR output, JSON parsing and
// object-shape coercion for extraction output.
package completion

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/adverant/zerox/internal/pipelineerr"
)

var fencePattern = regexp.MustCompile("(?s)^```(?:markdown|html)?\\s*\\n?(.*?)\\n?```\\s*$")

// NormalizeOCR strips fenced code delimiters some models wrap Markdown in,
// trims surrounding whitespace, and returns the cleaned content alongside
// its visible-character length.
func NormalizeOCR(raw string) (content string, contentLength int) {
	trimmed := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	return trimmed, len([]rune(trimmed))
}

// NormalizeExtraction parses raw JSON produced by an extraction call. When
// isObjectSchema is true, the parsed value is coerced to a map, defaulting
// to an empty object when raw is empty or not itself an object.
func NormalizeExtraction(raw string, isObjectSchema bool) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}

	if trimmed == "" {
		if isObjectSchema {
			return map[string]interface{}{}, nil
		}
		return nil, nil
	}

	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil, pipelineerr.NewExtractionError("parse json", err)
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		if isObjectSchema {
			return map[string]interface{}{}, nil
		}
		return nil, pipelineerr.NewExtractionError("parse json", errNotAnObject)
	}
	return obj, nil
}

var errNotAnObject = &notAnObjectError{}

type notAnObjectError struct{}

func (*notAnObjectError) Error() string { return "extraction response was not a JSON object" }
