package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeDaysRe  = regexp.MustCompile(`(\d+)\+?\s*days?\s+ago`)
	relativeHoursRe = regexp.MustCompile(`(\d+)\s*(?:hours?|minutes?)\s+ago`)
)

// Phrases that mean "posted on the scrape date". A "posted" prefix is
// trimmed before the comparison, so "posted today" arrives here as "today".
var freshPhrases = []string{"just posted", "today"}

// ResolvePostedDate converts a relative posted-date phrase ("posted 3 days
// ago", "just posted", "30+ days ago") into an absolute calendar date,
// resolved against the scrape time. The second return value is false when the
// phrase is not recognized; callers must keep such listings but never use
// them for cutoff comparisons.
//
// "N+ days ago" resolves to N days back: the true posting is at least that
// old, so the lower bound is the safe choice for a strictly-older-than-cutoff
// comparison.
func ResolvePostedDate(raw string, now time.Time) (time.Time, bool) {
	phrase := strings.ToLower(strings.TrimSpace(raw))
	if phrase == "" {
		return time.Time{}, false
	}
	for _, prefix := range []string{"employer active", "posted", "active"} {
		phrase = strings.TrimSpace(strings.TrimPrefix(phrase, prefix))
	}

	day := now.UTC().Truncate(24 * time.Hour)

	for _, fresh := range freshPhrases {
		if phrase == fresh {
			return day, true
		}
	}
	if phrase == "yesterday" {
		return day.AddDate(0, 0, -1), true
	}
	if m := relativeDaysRe.FindStringSubmatch(phrase); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return day.AddDate(0, 0, -n), true
	}
	if relativeHoursRe.MatchString(phrase) {
		return day, true
	}
	return time.Time{}, false
}
