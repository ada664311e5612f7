package scraper

import "fmt"

// FetchError indicates a search-results page could not be loaded or did not
// look like a results page at all (network failure, anti-bot interstitial,
// browser crash). It is fatal to the run: treating it as an empty page would
// falsely terminate pagination.
type FetchError struct {
	PageIndex int
	URL       string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d (%s): %v", e.PageIndex, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
