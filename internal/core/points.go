// Package core provides point parsing utilities.
//
// This file converts textual point values (catalog files, spreadsheet cells,
// form fields) into whole points.
package core

import (
	"sort"
	"strconv"
	"strings"
)

// ParsePoints converts a textual point value into whole points.
//
// It accepts plain integers ("15"), a leading plus sign, and the integral
// decimal forms spreadsheets like to render ("15.0", "15,00"). A fractional
// part other than zeros is rejected rather than rounded.
//
// Examples:
//
//	ParsePoints("15")    -> 15, nil
//	ParsePoints("15.0")  -> 15, nil
//	ParsePoints("15,5")  -> 0, ErrDataIntegrity
//	ParsePoints("-3")    -> 0, ErrDataIntegrity
func ParsePoints(s string) (int64, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, DataIntegrityError("empty point value")
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, DataIntegrityError("%q is not a number", raw)
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, DataIntegrityError("%q is not a non-negative whole number", raw)
		}
	}
	if len(parts) == 2 {
		for _, r := range parts[1] {
			if r != '0' {
				return 0, DataIntegrityError("%q is not a whole number", raw)
			}
		}
	}
	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, DataIntegrityError("%q is out of range", raw)
	}
	return v, nil
}

func sortByValueThenName(names []string, c Catalog) {
	sort.Slice(names, func(i, j int) bool {
		if c[names[i]] != c[names[j]] {
			return c[names[i]] < c[names[j]]
		}
		return names[i] < names[j]
	})
}
