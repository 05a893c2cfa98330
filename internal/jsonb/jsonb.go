// Package jsonb detects and pretty-prints JSON column values.
package jsonb

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LooksLikeJSON reports whether a text value is worth a JSON parse attempt.
// SQLite stores JSON as plain text, so this is the only signal available.
func LooksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// Pretty re-indents a JSON document with two-space indentation. Invalid
// JSON is returned unchanged.
func Pretty(b []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return string(b)
	}
	return out.String()
}

// PrettyString is Pretty over a string value, parsing first so that only
// well-formed JSON gets reformatted.
func PrettyString(s string) string {
	if !json.Valid([]byte(s)) {
		return s
	}
	return Pretty([]byte(s))
}
