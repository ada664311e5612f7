// Package scraper defines core types shared across the scrape pipeline.
package scraper

import (
	"net/url"
	"strconv"
	"time"
)

// SearchQuery identifies one job search: what and where.
type SearchQuery struct {
	Title    string
	Location string
}

// URL renders the search-results URL for the given zero-based page index.
// The site paginates in steps of ten and is asked to sort by date so that
// cards arrive in descending recency order.
func (q SearchQuery) URL(baseURL string, pageIndex int) string {
	params := url.Values{}
	params.Set("q", q.Title)
	if q.Location != "" {
		params.Set("l", q.Location)
	}
	params.Set("sort", "date")
	if pageIndex > 0 {
		params.Set("start", strconv.Itoa(pageIndex*10))
	}
	return baseURL + "/jobs?" + params.Encode()
}

// Page is one rendered search-results page.
type Page struct {
	URL        string
	PageIndex  int
	StatusCode int
	Body       []byte
	UsedJS     bool
	FetchedAt  time.Time
	Duration   time.Duration
}

// JobListing is the normalized record extracted from one listing card.
type JobListing struct {
	JobKey            string    `json:"job_key"`
	Link              string    `json:"link"`
	Title             string    `json:"title"`
	Company           string    `json:"company,omitempty"`
	Location          string    `json:"location,omitempty"`
	PostedAt          time.Time `json:"posted_at,omitempty"`
	PostedAtRaw       string    `json:"posted_at_raw,omitempty"`
	DateResolved      bool      `json:"date_resolved"`
	Snippet           string    `json:"snippet,omitempty"`
	Salary            string    `json:"salary,omitempty"`
	JobType           string    `json:"job_type,omitempty"`
	WorkFormat        string    `json:"work_format,omitempty"`
	ProcessedLocation string    `json:"processed_location,omitempty"`
}

// OlderThan reports whether the listing's resolved date is strictly older
// than the cutoff. Unresolved dates never compare older, so a parsing
// failure cannot terminate pagination.
func (l JobListing) OlderThan(cutoff time.Time) bool {
	if !l.DateResolved || cutoff.IsZero() {
		return false
	}
	return l.PostedAt.Before(cutoff)
}

// StopReason names the pagination stopping rule that ended a run.
type StopReason string

// Stopping rules, in the order the driver checks them.
const (
	StopEmptyPage   StopReason = "empty_page"
	StopDateCutoff  StopReason = "date_cutoff"
	StopPageCeiling StopReason = "page_ceiling"
)

// Result is what a completed pagination run hands to the sink.
type Result struct {
	Listings     []JobListing
	PagesFetched int
	Duplicates   int
	Stop         StopReason
}
