// Package utils holds small helpers shared by the webhook normalizer, the
// proxy service and the HTTP handlers: duck-typed JSON lookups, phone
// number cleanup and page arithmetic.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, returning def when s is empty,
// malformed or out of range. Surrounding whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageOffset normalizes a 1-based page and a page size and returns the
// row offset of the page. A page below 1 becomes 1 and a non-positive size
// becomes def. max, when positive, caps the size.
//
//	PageOffset(3, 20, 20, 0) // 3, 20, 40
//	PageOffset(0, 0, 50, 0)  // 1, 50, 0
func PageOffset(page, size, def, max int) (p, s, offset int) {
	p, s = page, size
	if p < 1 {
		p = 1
	}
	if s <= 0 {
		s = def
	}
	if max > 0 && s > max {
		s = max
	}
	return p, s, (p - 1) * s
}

// QueryInt is AtoiDefault for query string values, which tolerates the
// stray whitespace some inbox clients send.
func QueryInt(v string, def int) int {
	return AtoiDefault(strings.TrimSpace(v), def)
}
