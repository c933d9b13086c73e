package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON extracts and unmarshals the JSON object embedded in an LLM reply.
// Models wrap output in markdown fences or preamble prose despite being told
// not to, so everything before the first '{' and after the last '}' is
// discarded before decoding.
func ParseJSON[T any](response string) (T, error) {
	var parsed T

	start := strings.Index(response, "{")
	if start < 0 {
		return parsed, fmt.Errorf("response contains no JSON object")
	}
	end := strings.LastIndex(response, "}")
	if end < start {
		return parsed, fmt.Errorf("response contains an unterminated JSON object")
	}

	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return parsed, fmt.Errorf("malformed JSON in response: %w", err)
	}
	return parsed, nil
}
