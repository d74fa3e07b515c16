package common

import (
	"encoding/json"
	"fmt"
)

// ParseJSON cleans and unmarshals a JSON object from an LLM response into T.
// It tolerates surrounding markdown fences and prose by slicing from the
// first '{' to the last '}'.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr, err := slice(response, '{', '}')
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}
	return result, nil
}

func slice(s string, open, closing byte) (string, error) {
	start := -1
	end := -1

	for i := 0; i < len(s); i++ {
		if s[i] == open {
			start = i
			break
		}
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == closing {
			end = i + 1
			break
		}
	}

	if start == -1 || end == -1 || start >= end {
		return "", fmt.Errorf("no JSON value found in response (missing '%c')", open)
	}
	return s[start:end], nil
}
