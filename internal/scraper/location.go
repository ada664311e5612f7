package scraper

import (
	"regexp"
	"strings"
)

var workFormats = []string{"Hybrid", "Remote", "In Person"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// SplitWorkFormat separates the work arrangement from a raw location string.
// Sites render locations like "Hybrid work in Austin, TX" or "Remote"; the
// work format becomes its own column and the remainder is the place itself.
// Unknown is returned when no format keyword is present.
func SplitWorkFormat(raw string) (workFormat, location string) {
	workFormat = "Unknown"
	location = raw

	lower := strings.ToLower(raw)
	for _, format := range workFormats {
		idx := strings.Index(lower, strings.ToLower(format))
		if idx < 0 {
			continue
		}
		workFormat = format
		rest := raw[idx+len(format):]
		// Drop the connective up to and including "in", as in "Hybrid work in".
		if inIdx := strings.Index(strings.ToLower(rest), "in "); inIdx >= 0 {
			rest = rest[inIdx+len("in "):]
		} else {
			rest = raw[:idx] + rest
		}
		location = rest
		break
	}

	location = strings.TrimSpace(whitespaceRe.ReplaceAllString(location, " "))
	return workFormat, location
}
