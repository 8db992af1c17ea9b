// Package normalizer extracts display text from webhook responses whose
// shape is not contractually fixed. The automation pipeline behind the
// summary, insights and chat endpoints may answer with an object, an
// array of objects, a bare string, or JSON nested inside a string field,
// so extraction runs an ordered list of strategies and degrades to a
// fixed notice instead of failing.
package normalizer

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"
)

// FallbackText is substituted whenever no usable text can be pulled out
// of a payload.
const FallbackText = "could not extract a response"

// Field names checked on objects, in precedence order.
var (
	textFields = []string{"output", "answer", "response", "text", "message", "content"}
	itemFields = []string{"insights", "key_points", "points", "result", "content"}
)

// minScanRunes is the threshold for the value-scan fallback: shorter
// strings are assumed to be status markers, not content.
const minScanRunes = 10

// Decode converts a raw response body into a value the extractors
// understand. Bodies that are not valid JSON are kept as plain strings so
// the string strategies still apply.
func Decode(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

type textStrategy func(any) (string, bool)

var textStrategies = []textStrategy{
	textFromArrayHead,
	textFromObject,
	textFromString,
	textFromScannedValue,
}

// Text extracts a single display string from a payload. It never fails:
// when no strategy matches, or the matched string is blank, the fixed
// fallback notice is returned.
func Text(payload any) string {
	for _, extract := range textStrategies {
		s, ok := extract(payload)
		if !ok {
			continue
		}
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
		// The winning field was blank. Precedence still stands, so the
		// result is the fallback, not a later strategy's match.
		return FallbackText
	}
	return FallbackText
}

func textFromArrayHead(payload any) (string, bool) {
	arr, ok := payload.([]any)
	if !ok || len(arr) == 0 {
		return "", false
	}
	head, ok := arr[0].(map[string]any)
	if !ok {
		return "", false
	}
	return firstStringField(head, textFields)
}

func textFromObject(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	return firstStringField(obj, textFields)
}

func textFromString(payload any) (string, bool) {
	s, ok := payload.(string)
	return s, ok
}

// textFromScannedValue walks all values of an object and picks the first
// string longer than minScanRunes. Keys are visited in sorted order so
// repeated calls on the same payload agree.
func textFromScannedValue(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range sortedKeys(obj) {
		if s, ok := obj[key].(string); ok && utf8.RuneCountInString(s) > minScanRunes {
			return s, true
		}
	}
	return "", false
}

type itemStrategy func(any) ([]string, bool)

var itemStrategies = []itemStrategy{
	itemsFromEncodedField,
	itemsFromArrayField,
	itemsFromArray,
	itemsFromText,
	itemsFromScannedValue,
}

// Items extracts an ordered list of display strings from a payload.
// Every returned item is trimmed, non-empty and stripped of one leading
// bullet marker; an empty outcome yields a single fallback notice item.
func Items(payload any) []string {
	for _, extract := range itemStrategies {
		items, ok := extract(payload)
		if !ok {
			continue
		}
		if cleaned := cleanItems(items); len(cleaned) > 0 {
			return cleaned
		}
		return []string{FallbackText}
	}
	return []string{FallbackText}
}

// itemsFromEncodedField handles the array-of-objects form where the list
// arrives JSON-encoded inside a field, e.g.
// [{"insights":"{\"a\":\"First\",\"b\":\"Second\"}"}]. A parse failure
// falls back to the raw field value as a one-element list.
func itemsFromEncodedField(payload any) ([]string, bool) {
	arr, ok := payload.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	head, ok := arr[0].(map[string]any)
	if !ok {
		return nil, false
	}
	for _, field := range itemFields {
		switch v := head[field].(type) {
		case string:
			var parsed any
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				return []string{v}, true
			}
			return stringValues(parsed), true
		case map[string]any:
			return stringValues(v), true
		}
	}
	return nil, false
}

// itemsFromArrayField returns a field that is already a native array,
// checked on the top-level object or on the first element of an array.
func itemsFromArrayField(payload any) ([]string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		if arr, isArr := payload.([]any); isArr && len(arr) > 0 {
			obj, ok = arr[0].(map[string]any)
		}
		if !ok {
			return nil, false
		}
	}
	for _, field := range itemFields {
		if arr, ok := obj[field].([]any); ok {
			return stringElements(arr), true
		}
	}
	return nil, false
}

func itemsFromArray(payload any) ([]string, bool) {
	arr, ok := payload.([]any)
	if !ok {
		return nil, false
	}
	return stringElements(arr), true
}

// itemsFromText line-splits a string payload or a string field from the
// item field list.
func itemsFromText(payload any) ([]string, bool) {
	if s, ok := payload.(string); ok {
		return splitLines(s), true
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, field := range itemFields {
		if s, ok := obj[field].(string); ok {
			return splitLines(s), true
		}
	}
	return nil, false
}

func itemsFromScannedValue(payload any) ([]string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range sortedKeys(obj) {
		if s, ok := obj[key].(string); ok && utf8.RuneCountInString(s) > minScanRunes {
			return splitLines(s), true
		}
	}
	return nil, false
}

func firstStringField(obj map[string]any, fields []string) (string, bool) {
	for _, field := range fields {
		if s, ok := obj[field].(string); ok {
			return s, true
		}
	}
	return "", false
}

// stringValues returns the string values of a decoded JSON value. Maps
// are walked in sorted key order; Go randomizes map iteration, and the
// list order must be reproducible across calls.
func stringValues(v any) []string {
	switch t := v.(type) {
	case map[string]any:
		out := make([]string, 0, len(t))
		for _, key := range sortedKeys(t) {
			if s, ok := t[key].(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []any:
		return stringElements(t)
	case string:
		return []string{t}
	default:
		return nil
	}
}

func stringElements(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// cleanItems trims each item, strips one leading bullet marker and drops
// anything left empty.
func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = stripBullet(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func stripBullet(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	switch r {
	case '-', '•', '*':
		return strings.TrimSpace(s[size:])
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
