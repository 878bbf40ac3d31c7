package utils

import (
	"strconv"
	"strings"
)

// ParseInt parses s, falling back to def on empty or invalid input.
func ParseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// SplitList splits a comma-separated parameter into trimmed, non-empty items.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// PathSegment returns the i-th segment of a URL path, "" when out of range.
func PathSegment(path string, i int) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if i < 0 || i >= len(segments) {
		return ""
	}
	return segments[i]
}
