package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when model output holds no decodable JSON.
var ErrParseFailed = errors.New("failed to parse model output")

var jsonBlockExpr = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// parseJSON decodes content as JSON, falling back to the first fenced block.
func parseJSON[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	if m := jsonBlockExpr.FindStringSubmatch(content); len(m) >= 2 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}
