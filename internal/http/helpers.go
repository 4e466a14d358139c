package http

import (
	"html/template"
	"strconv"
	"strings"
)

// formatPoints renders a point total with a thin grouping, e.g. "1 250 pts".
func formatPoints(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(" pts")
	return b.String()
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// barHeight scales a day's points into a 0-100 percentage of the window max.
func barHeight(points, max int64) int {
	if max <= 0 || points <= 0 {
		return 0
	}
	return int(points * 100 / max)
}

func escape(s string) string {
	return template.HTMLEscapeString(s)
}
