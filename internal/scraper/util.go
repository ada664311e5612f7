package scraper

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// pageHasResultsShape reports whether the body contains either job cards or
// the explicit no-results banner.
func pageHasResultsShape(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	return doc.Find(selectorCard).Length() > 0 || doc.Find(selectorNoResults).Length() > 0
}
