// Package normalize canonicalises user-supplied identifiers before they are
// stored or used in lookups.
package normalize

import (
	"strings"
	"unicode"
)

// DefaultCountryCode is applied when a client omits the country code.
const DefaultCountryCode = "+91"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal whitespace, preserving case.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Mobile removes spaces, dashes and parentheses from a phone number.
func Mobile(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)
}

// CountryCode trims s and falls back to DefaultCountryCode.
func CountryCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCountryCode
	}
	return s
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
