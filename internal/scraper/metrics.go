package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalPagesFetched tracks the number of search-results pages fetched.
	TotalPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobscraper_pages_fetched_total",
		Help: "The total number of search-results pages fetched.",
	})
	// TotalListingsAccepted tracks listings accepted into the run accumulator.
	TotalListingsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobscraper_listings_accepted_total",
		Help: "The total number of listings accepted after dedup.",
	})
	// TotalDuplicatesSkipped tracks listings dropped by the keep-first dedup.
	TotalDuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobscraper_duplicates_skipped_total",
		Help: "The total number of duplicate listings skipped across pages.",
	})
	// TotalCardsSkipped tracks malformed listing cards that failed extraction.
	TotalCardsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobscraper_cards_skipped_total",
		Help: "The total number of malformed listing cards skipped.",
	})
	// TotalDatesUnresolved tracks posted-date phrases that could not be parsed.
	TotalDatesUnresolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobscraper_dates_unresolved_total",
		Help: "The total number of listings whose posted date could not be resolved.",
	})
	// TotalHeadlessPromotions tracks static fetches escalated to the browser.
	TotalHeadlessPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobscraper_headless_promotions_total",
		Help: "The total number of pages re-fetched with the headless browser.",
	})
)
