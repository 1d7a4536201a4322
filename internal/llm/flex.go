package llm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

var leadingNumber = regexp.MustCompile(`^[-+]?\d+(?:[.,]\d+)?`)

// Number decodes from a JSON number or from a string that starts with
// one, e.g. "2100" or "2100 kcal".
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("Number: expected number or string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*n = 0
		return nil
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return fmt.Errorf("Number: invalid numeric string %q", s)
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return fmt.Errorf("Number: invalid numeric string %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

func (n Number) Int() int { return int(math.Round(float64(n))) }

// Strings decodes from either a JSON array of strings or a single string.
type Strings []string

func (s *Strings) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("Strings: %w", err)
		}
		*s = list
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("Strings: expected string or array")
	}
	if one = strings.TrimSpace(one); one != "" {
		*s = Strings{one}
	}
	return nil
}

// Text decodes from a JSON string or number, keeping numbers as written.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("Text: %w", err)
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("Text: expected string or number")
	}
	*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}
