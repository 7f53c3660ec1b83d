// Package llmutils has helpers for text exchanged with models and users.
package llmutils

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

var fence = []byte("```")

// CleanJSON returns the JSON document embedded in a model reply,
// dropping any prose or code fence around the outermost object or array.
// The input is returned unchanged when it has no brackets.
func CleanJSON(bs []byte) []byte {
	start := firstIndex(bs, '{', '[')
	if start == -1 {
		return bs
	}
	bs = bs[start:]

	end := max(bytes.LastIndexByte(bs, '}'), bytes.LastIndexByte(bs, ']'))
	if end == -1 {
		return bs
	}
	return bs[:end+1]
}

func firstIndex(bs []byte, a, b byte) int {
	i, j := bytes.IndexByte(bs, a), bytes.IndexByte(bs, b)
	switch {
	case i == -1:
		return j
	case j == -1:
		return i
	default:
		return min(i, j)
	}
}

// TrimBackticks returns the content of the first code fence
func TrimBackticks(text string) string {
	return string(BytesTrimBackticks([]byte(text)))
}

// BytesTrimBackticks returns the content of the first code fence,
// without the language tag line.
func BytesTrimBackticks(bs []byte) []byte {
	open := bytes.Index(bs, fence)
	if open == -1 {
		return bs
	}
	body := bs[open+len(fence):]

	// skip the language tag, unless the document starts on the fence line
	if nl := bytes.IndexByte(body, '\n'); nl != -1 && firstIndex(body[:nl], '{', '[') == -1 {
		body = body[nl+1:]
	}

	if end := bytes.LastIndex(body, fence); end != -1 {
		body = body[:end]
	}
	return bytes.TrimSpace(body)
}

// Fence wraps the body in a code fence tagged with lang
func Fence(lang, body string) string {
	return "```" + lang + "\n" + EnsureEndsWithNewline(body) + "```"
}

// ToCompactJSON returns JSON without HTML escaping,
// suitable for text shown back to a model or a user.
// It returns an empty string if val can not be encoded.
func ToCompactJSON(val any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(val); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ToJSONIndent returns tab indented JSON
func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

// ToYAML returns YAML
func ToYAML(val any) string {
	y, _ := yaml.Marshal(val)
	return string(y)
}

// EnsureEndsWithNewline trims s and terminates a non-empty result with a newline
func EnsureEndsWithNewline(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return s
	}
	return s + "\n"
}
