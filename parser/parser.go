// Package parser cleans raw sink fields into the derived values the
// dashboard filters on. All functions are best-effort: an unparseable input
// becomes a missing value, never an error, and the row is retained.
package parser

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyReplacer = strings.NewReplacer("Â", "", "£", "", "$", "", "€", "")

	// thousandsPattern matches a decimal number with comma grouping, e.g.
	// "1,234" or "12,345.67". A comma is accepted only in this form: treating
	// every comma as a separator to strip would silently turn a
	// comma-decimal "51,77" into 5177.
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)

	digitsPattern = regexp.MustCompile(`\d+`)

	// ratingWords is ordered; containment is checked first-match wins.
	ratingWords = []struct {
		word  string
		value int
	}{
		{"one", 1},
		{"two", 2},
		{"three", 3},
		{"four", 4},
		{"five", 5},
	}
)

// ParsePrice converts a raw price like "£51.77" to a float. Currency symbols
// and encoding artifacts are stripped; commas are accepted only as thousands
// grouping. Unparseable input yields NaN (prices are positive, so NaN is the
// unambiguous missing marker).
func ParsePrice(raw string) float64 {
	s := strings.TrimSpace(currencyReplacer.Replace(raw))
	if s == "" {
		return math.NaN()
	}
	if strings.Contains(s, ",") {
		if !thousandsPattern.MatchString(s) {
			return math.NaN()
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return math.NaN()
	}
	return value
}

// ParseRating maps the ordinal rating words to 1..5 by case-insensitive
// containment, so "star-rating Three" and "Three" both work. A bare number
// is accepted as-is. Unrecognized input yields 0 (ratings are 1..5, so 0 is
// the missing marker).
func ParseRating(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}
	for _, r := range ratingWords {
		if strings.Contains(s, r.word) {
			return r.value
		}
	}
	if m := digitsPattern.FindString(s); m != "" {
		if value, err := strconv.Atoi(m); err == nil {
			return value
		}
	}
	return 0
}

// CanonicalAvailability reduces free-text availability to one of two
// canonical values.
func CanonicalAvailability(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(s, "in stock") || strings.Contains(s, "available") {
		return "In stock"
	}
	return "Out of stock"
}

// ResolveImageURL keeps an already absolute URL and resolves anything else
// against the catalogue root. Empty or unparseable input yields "".
func ResolveImageURL(raw string, root *url.URL) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	ref, err := url.Parse(s)
	if err != nil || root == nil {
		return ""
	}
	return root.ResolveReference(ref).String()
}
