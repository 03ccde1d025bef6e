// Package sanitize strips markup from user supplied free text before it is
// stored or echoed back to other users.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 5

var policy = bluemonday.StrictPolicy()

// Text removes every HTML element from s and trims surrounding whitespace.
// Entity encoded markup is decoded and stripped again until nothing changes,
// so "&lt;img&gt;" cannot come back as a tag while plain text such as "R&D"
// keeps its characters. Input still changing after maxPasses is returned in
// the policy's escaped form.
func Text(s string) string {
	if s == "" {
		return s
	}
	current := s
	for i := 0; i < maxPasses; i++ {
		decoded := html.UnescapeString(policy.Sanitize(current))
		if decoded == current {
			return strings.TrimSpace(decoded)
		}
		current = decoded
	}
	return strings.TrimSpace(policy.Sanitize(current))
}

// TextPtr applies Text to an optional value.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := Text(*s)
	return &cleaned
}
