// Package llm holds helpers for decoding JSON that language models embed
// in free-form text.
package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

var ErrNoJSON = errors.New("no JSON object in response")

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractObject returns the JSON object embedded in content. A fenced
// ```json block wins; otherwise the span from the first '{' to the last
// '}' is used.
func ExtractObject(content string) (string, error) {
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		return m[1], nil
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", ErrNoJSON
	}
	return content[start : end+1], nil
}

// Decode extracts the embedded object and unmarshals it into v.
func Decode(content string, v any) error {
	raw, err := ExtractObject(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
