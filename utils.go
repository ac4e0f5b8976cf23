package main

import (
	"bytes"
	"encoding/json"
	"strings"
)

// splitPath splits a URL path on "/" and drops the empty segments, so
// "/todos/3/" gives ["todos", "3"].
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// encodeJSON marshals v without HTML escaping and without a trailing
// newline. A non-empty indent pretty-prints.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
