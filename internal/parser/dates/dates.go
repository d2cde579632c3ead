// Package dates translates the staging sources' declared date patterns
// (Spark-style, e.g. "d/M/y" or "dd/MM/yy") into Go time layouts and parses
// values against them.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layouts expands a source date pattern into the Go layouts it admits.
// Single-letter day/month tokens accept both padded and unpadded values, so
// "d/M/y" parses "3/4/2012" as well as "03/04/2012".
func Layouts(pattern string) []string {
	primary := expand(pattern, "2", "1")
	padded := expand(pattern, "02", "01")
	if padded == primary {
		return []string{primary}
	}
	return []string{primary, padded}
}

// expand translates one pattern, substituting day and month for any
// single-letter d/M tokens left after the two-letter ones.
func expand(pattern, day, month string) string {
	r := strings.NewReplacer(
		"yyyy", "2006",
		"yy", "06",
		"dd", "02",
		"MM", "01",
	)
	p := r.Replace(pattern)
	p = strings.ReplaceAll(p, "y", "2006")
	p = strings.ReplaceAll(p, "d", day)
	p = strings.ReplaceAll(p, "M", month)
	return p
}

// Parse parses s against the layouts of pattern, trying each in order.
func Parse(pattern, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range Layouts(pattern) {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q with pattern %q: %w", s, pattern, firstErr)
}
