// Package sanitize strips markup from user-supplied free text. Sanitization
// runs only after validation succeeds, so length limits apply to what the user
// actually typed.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// TextSlice sanitizes every element in place and returns the slice.
func TextSlice(items []string) []string {
	for i, s := range items {
		items[i] = Text(s)
	}
	return items
}

// TextPtr sanitizes through a pointer, leaving nil untouched.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	return &clean
}
