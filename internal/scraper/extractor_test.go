package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const resultsPageFixture = `<!DOCTYPE html>
<html><body>
<div id="mosaic-jobResults">
  <div class="job_seen_beacon">
    <h2 class="jobTitle">
      <a class="jcs-JobTitle" data-jk="abc123" href="/rc/clk?jk=abc123&amp;from=web">
        <span>Senior Software Engineer</span>
      </a>
    </h2>
    <span data-testid="company-name">Initech</span>
    <div data-testid="text-location">Hybrid work in Austin, TX</div>
    <div class="metadata salary-snippet-container">$120,000 - $150,000 a year</div>
    <div class="metadata">Full-time</div>
    <div class="job-snippet">Build and ship backend services.</div>
    <span class="date">Posted 2 days ago</span>
  </div>
  <div class="job_seen_beacon">
    <h2 class="jobTitle">
      <a class="jcs-JobTitle" href="/viewjob?jk=def456">
        <span>Data Analyst</span>
      </a>
    </h2>
    <span data-testid="company-name">Globex</span>
    <div data-testid="text-location">Remote</div>
    <span data-testid="job-age">Just posted</span>
  </div>
  <div class="job_seen_beacon">
    <span data-testid="company-name">Orphan Corp</span>
    <div data-testid="text-location">Nowhere, KS</div>
  </div>
  <div class="job_seen_beacon">
    <h2 class="jobTitle">
      <a class="jcs-JobTitle" data-jk="ghi789" href="/viewjob?jk=ghi789">
        <span>Network Administrator</span>
      </a>
    </h2>
    <span data-testid="company-name">Umbrella</span>
    <div data-testid="text-location">Raccoon City, WA</div>
    <span class="date">PostedPosted 30+ days ago</span>
  </div>
</div>
</body></html>`

func TestExtractParsesCards(t *testing.T) {
	t.Parallel()

	scrapedAt := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	x := NewExtractor("https://www.indeed.com", nil, nil)

	listings := x.Extract(Page{Body: []byte(resultsPageFixture)}, scrapedAt)
	require.Len(t, listings, 3, "malformed card must be skipped, not fail the page")

	first := listings[0]
	require.Equal(t, "abc123", first.JobKey)
	require.Equal(t, "https://www.indeed.com/rc/clk?jk=abc123&from=web", first.Link)
	require.Equal(t, "Senior Software Engineer", first.Title)
	require.Equal(t, "Initech", first.Company)
	require.Equal(t, "Hybrid", first.WorkFormat)
	require.Equal(t, "Austin, TX", first.ProcessedLocation)
	require.Equal(t, "$120,000 - $150,000 a year", first.Salary)
	require.Equal(t, "Full-time", first.JobType)
	require.Equal(t, "Build and ship backend services.", first.Snippet)
	require.True(t, first.DateResolved)
	require.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), first.PostedAt)

	second := listings[1]
	require.Equal(t, "def456", second.JobKey, "job key falls back to the jk query parameter")
	require.Equal(t, "Remote", second.WorkFormat)
	require.Equal(t, "", second.ProcessedLocation)
	require.True(t, second.DateResolved)
	require.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), second.PostedAt)

	third := listings[2]
	require.Equal(t, "ghi789", third.JobKey)
	require.True(t, third.DateResolved)
	require.Equal(t, time.Date(2025, 2, 13, 0, 0, 0, 0, time.UTC), third.PostedAt,
		"30+ days resolves to the lower bound")
}

func TestExtractEmptyAndNoResultsPages(t *testing.T) {
	t.Parallel()

	x := NewExtractor("https://www.indeed.com", nil, nil)
	scrapedAt := time.Now().UTC()

	noResults := `<html><body>
		<div class="jobsearch-NoResult-messageHeader">No jobs found</div>
	</body></html>`
	require.Empty(t, x.Extract(Page{Body: []byte(noResults)}, scrapedAt))

	require.Empty(t, x.Extract(Page{Body: []byte("<html><body></body></html>")}, scrapedAt))
}

func TestSearchQueryURL(t *testing.T) {
	t.Parallel()

	q := SearchQuery{Title: "IT", Location: "Remote"}
	require.Equal(t,
		"https://www.indeed.com/jobs?l=Remote&q=IT&sort=date",
		q.URL("https://www.indeed.com", 0))
	require.Equal(t,
		"https://www.indeed.com/jobs?l=Remote&q=IT&sort=date&start=30",
		q.URL("https://www.indeed.com", 3))

	q = SearchQuery{Title: "software engineer"}
	require.Equal(t,
		"https://www.indeed.com/jobs?q=software+engineer&sort=date",
		q.URL("https://www.indeed.com", 0))
}
