package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// scriptedFetcher serves a fixed page sequence; indexes past the script fail
// the test so runaway pagination is visible.
type scriptedFetcher struct {
	t     *testing.T
	pages []string
	err   error
	errAt int
}

func (f *scriptedFetcher) Fetch(_ context.Context, _ SearchQuery, pageIndex int) (Page, error) {
	if f.err != nil && pageIndex == f.errAt {
		return Page{}, f.err
	}
	if pageIndex >= len(f.pages) {
		f.t.Fatalf("fetched page %d beyond script of %d pages", pageIndex, len(f.pages))
	}
	return Page{PageIndex: pageIndex, Body: []byte(f.pages[pageIndex])}, nil
}

func card(jk, title, posted string) string {
	return fmt.Sprintf(`<div class="job_seen_beacon">
		<a class="jcs-JobTitle" data-jk=%q href="/viewjob?jk=%s"><span>%s</span></a>
		<span data-testid="company-name">ACME</span>
		<div data-testid="text-location">Remote</div>
		<span class="date">%s</span>
	</div>`, jk, jk, title, posted)
}

func resultsPage(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

const emptyPage = `<html><body><div class="jobsearch-NoResult-messageHeader">No jobs</div></body></html>`

func newTestDriver(t *testing.T, fetcher Fetcher, cutoff time.Time, maxPages int) *Driver {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}
	return NewDriver(DriverConfig{
		Query:    SearchQuery{Title: "IT"},
		BaseURL:  "https://example.test",
		Cutoff:   cutoff,
		MaxPages: maxPages,
	}, fetcher, NewExtractor("https://example.test", nil, nil), clock, nil, nil)
}

func TestDriverStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{t: t, pages: []string{
		resultsPage(card("a1", "Engineer", "Today"), card("a2", "Analyst", "Today")),
		resultsPage(card("b1", "Developer", "1 day ago")),
		emptyPage,
	}}
	driver := newTestDriver(t, fetcher, time.Time{}, 40)

	res, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StopEmptyPage, res.Stop)
	require.Equal(t, 3, res.PagesFetched)
	require.Len(t, res.Listings, 3)
	require.Zero(t, res.Duplicates)
}

func TestDriverDedupKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{t: t, pages: []string{
		resultsPage(card("dup", "First Title", "Today"), card("x1", "Other", "Today")),
		resultsPage(card("dup", "Second Title", "Today")),
		emptyPage,
	}}
	driver := newTestDriver(t, fetcher, time.Time{}, 40)

	res, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Listings, 2)
	require.Equal(t, 1, res.Duplicates)

	keys := make(map[string]int)
	for _, l := range res.Listings {
		keys[l.JobKey]++
	}
	require.Equal(t, 1, keys["dup"], "accumulator must hold unique job keys")
	require.Equal(t, "First Title", res.Listings[0].Title, "first occurrence wins")
}

func TestDriverDateCutoffFinishesCurrentPage(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{t: t, pages: []string{
		resultsPage(card("p0a", "Fresh", "Today")),
		resultsPage(
			card("p1a", "Recent", "1 day ago"),
			card("p1b", "Stale", "5 days ago"),
			card("p1c", "After Stale", "Today"),
		),
	}}
	driver := newTestDriver(t, fetcher, cutoff, 40)

	res, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StopDateCutoff, res.Stop)
	require.Equal(t, 2, res.PagesFetched)
	require.Len(t, res.Listings, 4, "the triggering page is processed to the end")
}

func TestDriverUnresolvedDateNeverTriggersCutoff(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{t: t, pages: []string{
		resultsPage(card("u1", "Mystery", "see description")),
		emptyPage,
	}}
	driver := newTestDriver(t, fetcher, cutoff, 40)

	res, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StopEmptyPage, res.Stop, "unresolved dates must not stop pagination")
	require.Len(t, res.Listings, 1)
	require.False(t, res.Listings[0].DateResolved)
}

func TestDriverPageCeiling(t *testing.T) {
	t.Parallel()

	pages := make([]string, 5)
	for i := range pages {
		pages[i] = resultsPage(card(fmt.Sprintf("k%d", i), "Job", "Today"))
	}
	fetcher := &scriptedFetcher{t: t, pages: pages}
	driver := newTestDriver(t, fetcher, time.Time{}, 3)

	res, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StopPageCeiling, res.Stop)
	require.Equal(t, 3, res.PagesFetched)
	require.Len(t, res.Listings, 3)
}

func TestDriverFetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("interstitial page")
	fetcher := &scriptedFetcher{t: t, pages: []string{
		resultsPage(card("a1", "Engineer", "Today")),
	}, err: boom, errAt: 1}
	driver := newTestDriver(t, fetcher, time.Time{}, 40)

	res, err := driver.Run(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 1, fetchErr.PageIndex)
	require.ErrorIs(t, err, boom)
	require.Empty(t, res.Listings, "partial accumulation must not reach the caller")
}

func TestDriverHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &scriptedFetcher{t: t, pages: []string{emptyPage}}
	driver := newTestDriver(t, fetcher, time.Time{}, 40)

	_, err := driver.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
