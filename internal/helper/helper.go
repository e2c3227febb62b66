package helper

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func TooLong(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

// NormSymbol trims and upper-cases a ticker ("eurusd " -> "EURUSD").
func NormSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseID parses a positive int64 path/form id.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Date builds a calendar date (UTC midnight) and rejects overflow like 2024-02-31.
func Date(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || year < 1 || year > 9999 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// DateOf drops the clock part of t.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
