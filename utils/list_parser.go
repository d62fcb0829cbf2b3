package utils

import (
	"strings"
	"time"
)

// SplitList splits a comma separated sheet cell and trims every element.
// Blank elements are kept so callers can pair lists positionally:
// "A, ,B" -> ["A", "", "B"]. An entirely blank cell yields nil.
func SplitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// At returns list[i] or "" when i is out of range.
func At(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

// DateLayout is the ISO date format used for order dates.
const DateLayout = "2006-01-02"

// Today formats now as an order date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// NormalizeDate accepts "2006-01-02", RFC3339 timestamps and "2006/01/02"
// and returns the ISO date. Unparseable input is returned trimmed.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano, "2006/01/02", "2006/1/2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return s
}
