// This file holds duck-typed JSON accessors for provider payloads whose
// field layout varies between API versions.
package utils

import (
	"bytes"
	"encoding/json"

	"github.com/buger/jsonparser"
)

func lookup(doc []byte, keys ...string) ([]byte, jsonparser.ValueType) {
	v, t, _, err := jsonparser.Get(doc, keys...)
	if err != nil {
		return nil, jsonparser.NotExist
	}
	return v, t
}

// Str reads the value at keys as text. Numbers and booleans are returned in
// their JSON spelling; objects, arrays, null and missing keys give "".
func Str(doc []byte, keys ...string) string {
	v, t := lookup(doc, keys...)
	switch t {
	case jsonparser.String:
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return string(v)
		}
		return s
	case jsonparser.Number, jsonparser.Boolean:
		return string(v)
	}
	return ""
}

// FirstStr returns the first non-empty Str among the given key paths.
func FirstStr(doc []byte, paths ...[]string) string {
	for _, p := range paths {
		if s := Str(doc, p...); s != "" {
			return s
		}
	}
	return ""
}

// Truthy applies loose truthiness: missing, null, false, 0 and "" are false;
// any other value, including empty objects and arrays, is true.
func Truthy(doc []byte, keys ...string) bool {
	v, t := lookup(doc, keys...)
	switch t {
	case jsonparser.NotExist, jsonparser.Null, jsonparser.Unknown:
		return false
	case jsonparser.String:
		return len(v) > 0
	case jsonparser.Boolean:
		return string(v) == "true"
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(v)
		return err == nil && f != 0
	}
	return true
}

// Defined reports whether the key is present, even when its value is null.
func Defined(doc []byte, keys ...string) bool {
	_, t := lookup(doc, keys...)
	return t != jsonparser.NotExist
}

// Raw returns the raw bytes and type at keys.
func Raw(doc []byte, keys ...string) ([]byte, jsonparser.ValueType) {
	return lookup(doc, keys...)
}

// Each calls fn for every object element of the array at keys. Non-object
// elements are skipped.
func Each(doc []byte, fn func(obj []byte), keys ...string) {
	_, _ = jsonparser.ArrayEach(doc, func(value []byte, t jsonparser.ValueType, _ int, err error) {
		if err != nil || t != jsonparser.Object {
			return
		}
		fn(value)
	}, keys...)
}

// Compact renders obj as single-line JSON, falling back to its raw text.
func Compact(obj []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, obj); err != nil {
		return string(obj)
	}
	return buf.String()
}
