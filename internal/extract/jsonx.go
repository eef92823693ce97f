package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

var fencedJSONPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")

// DecodeObject unmarshals the first JSON object found in a model reply.
// Candidates are tried in order: fenced code block, brace-balanced scan,
// raw text. Whatever candidate survives is unmarshalled directly, and on
// failure once more after mechanical JSON repair.
func DecodeObject(raw string, v interface{}) error {
	candidate := jsonCandidate(raw)
	if candidate == "" {
		return fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.RepairJSON(candidate)
	if err != nil {
		return fmt.Errorf("repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("unmarshal repaired json: %w", err)
	}
	return nil
}

func jsonCandidate(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if obj := braceScan(text); obj != "" {
		return obj
	}
	return text
}

// braceScan returns the first brace-balanced object, tracking string
// literals so braces inside values do not unbalance the walk.
func braceScan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
