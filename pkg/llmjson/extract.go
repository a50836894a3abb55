// Package llmjson provides lenient extraction of JSON values from raw LLM
// text output — stripping Markdown code fences and surrounding prose, the
// way original_source's backend/app/services/prompt_generator.py and the
// terminology extraction path tolerate LLM responses that don't follow
// the "output only JSON" instruction exactly.
package llmjson

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var fencePrefixes = []string{"```json", "```JSON", "```"}

// stripFences removes a leading/trailing Markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range fencePrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			s = strings.TrimPrefix(s, "\n")
			break
		}
	}
	s = strings.TrimSuffix(s, "\n```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject locates the outermost {...} in raw (after fence stripping)
// and returns it parsed as a gjson.Result, or an error if no valid JSON
// object can be found.
func ExtractObject(raw string) (gjson.Result, error) {
	return extract(raw, '{', '}')
}

// ExtractArray locates the outermost [...] in raw (after fence stripping)
// and returns it parsed as a gjson.Result, or an error if no valid JSON
// array can be found.
func ExtractArray(raw string) (gjson.Result, error) {
	return extract(raw, '[', ']')
}

func extract(raw string, open, close byte) (gjson.Result, error) {
	cleaned := stripFences(raw)

	if gjson.Valid(cleaned) {
		root := gjson.Parse(cleaned)
		if (open == '{' && root.IsObject()) || (open == '[' && root.IsArray()) {
			return root, nil
		}
	}

	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start == -1 || end == -1 || end <= start {
		return gjson.Result{}, fmt.Errorf("llmjson: no %c...%c span found in response", open, close)
	}

	candidate := cleaned[start : end+1]
	if !gjson.Valid(candidate) {
		return gjson.Result{}, fmt.Errorf("llmjson: extracted span is not valid JSON")
	}
	return gjson.Parse(candidate), nil
}
