package scraper

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/diag"
)

// Selectors for the search-results markup. These are the brittle part of the
// whole system; when the site ships a redesign this file is where it shows.
const (
	selectorCard      = "div.job_seen_beacon"
	selectorNoResults = ".jobsearch-NoResult-messageHeader"
	selectorTitleLink = "a.jcs-JobTitle"
	selectorCompany   = `span[data-testid="company-name"]`
	selectorLocation  = `div[data-testid="text-location"]`
	selectorSalary    = "div.metadata.salary-snippet-container"
	selectorJobType   = "div.metadata"
	selectorSnippet   = "div.job-snippet"
)

var dateSelectors = []string{
	"span.date",
	`span[data-testid="myJobsStateDate"]`,
	`span[data-testid="job-age"]`,
}

// Extractor parses one rendered search-results page into JobListing records.
// A malformed card is skipped with a diagnostic; it never aborts the page.
type Extractor struct {
	baseURL string
	logger  *zap.Logger
	diag    *diag.Emitter
}

// NewExtractor constructs an Extractor rooted at the site's base URL, used to
// absolutize card links.
func NewExtractor(baseURL string, logger *zap.Logger, emitter *diag.Emitter) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		diag:    emitter,
	}
}

// Extract returns the page's listings in document order (top = most recent,
// per the site's date sort). Zero listings is a legitimate result and signals
// the end of pagination to the caller.
func (x *Extractor) Extract(page Page, scrapedAt time.Time) []JobListing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		// An unparseable body yields zero cards; the fetcher has already
		// verified the page shape, so this should not occur in practice.
		x.logger.Warn("results page did not parse",
			zap.Int("page", page.PageIndex), zap.Error(err))
		return nil
	}

	var listings []JobListing
	doc.Find(selectorCard).Each(func(i int, card *goquery.Selection) {
		listing, ok := x.extractCard(card, scrapedAt)
		if !ok {
			TotalCardsSkipped.Inc()
			x.diag.Emit(diag.Event{
				Kind: diag.KindCardSkipped,
				Page: page.PageIndex,
				Note: "card missing title or link",
			})
			return
		}
		if !listing.DateResolved {
			TotalDatesUnresolved.Inc()
			x.diag.Emit(diag.Event{
				Kind:   diag.KindDateUnresolved,
				Page:   page.PageIndex,
				JobKey: listing.JobKey,
				Note:   listing.PostedAtRaw,
			})
		}
		listings = append(listings, listing)
	})
	return listings
}

func (x *Extractor) extractCard(card *goquery.Selection, scrapedAt time.Time) (JobListing, bool) {
	titleLink := card.Find(selectorTitleLink).First()
	title := cleanText(titleLink.Text())
	href, _ := titleLink.Attr("href")
	if title == "" || href == "" {
		return JobListing{}, false
	}

	link := x.absoluteLink(href)
	jobKey := extractJobKey(card, titleLink, href)
	if jobKey == "" {
		jobKey = link
	}

	listing := JobListing{
		JobKey:   jobKey,
		Link:     link,
		Title:    title,
		Company:  cleanText(card.Find(selectorCompany).First().Text()),
		Location: cleanText(card.Find(selectorLocation).First().Text()),
		Salary:   cleanText(card.Find(selectorSalary).First().Text()),
		Snippet:  cleanText(card.Find(selectorSnippet).First().Text()),
		JobType:  extractJobType(card),
	}
	listing.WorkFormat, listing.ProcessedLocation = SplitWorkFormat(listing.Location)

	listing.PostedAtRaw = extractDateText(card)
	listing.PostedAt, listing.DateResolved = ResolvePostedDate(listing.PostedAtRaw, scrapedAt)

	return listing, true
}

func (x *Extractor) absoluteLink(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return x.baseURL + href
}

// extractJobKey pulls the site's stable listing ID: the data-jk attribute on
// the card or title link, falling back to the jk query parameter in the href.
func extractJobKey(card, titleLink *goquery.Selection, href string) string {
	if jk, ok := titleLink.Attr("data-jk"); ok && jk != "" {
		return jk
	}
	if jk, ok := card.Attr("data-jk"); ok && jk != "" {
		return jk
	}
	if u, err := url.Parse(href); err == nil {
		if jk := u.Query().Get("jk"); jk != "" {
			return jk
		}
	}
	return ""
}

func extractDateText(card *goquery.Selection) string {
	for _, sel := range dateSelectors {
		if text := cleanText(card.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractJobType(card *goquery.Selection) string {
	text := strings.ToLower(card.Find(selectorJobType).Text())
	switch {
	case strings.Contains(text, "full-time"):
		return "Full-time"
	case strings.Contains(text, "part-time"):
		return "Part-time"
	default:
		return "Unknown"
	}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
