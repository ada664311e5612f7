package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobsignal/jobscraper/internal/scraper"
)

func TestFilterKeepsMatchingTitles(t *testing.T) {
	t.Parallel()

	f := NewFilter([]string{"Engineer", " analyst ", ""})
	in := []scraper.JobListing{
		{JobKey: "a", Title: "Senior Software Engineer"},
		{JobKey: "b", Title: "Head Chef"},
		{JobKey: "c", Title: "DATA ANALYST II"},
		{JobKey: "d", Title: "Receptionist"},
	}

	kept, dropped := f.Apply(in)
	require.Equal(t, 2, dropped)
	require.Len(t, kept, 2)
	require.Equal(t, "a", kept[0].JobKey)
	require.Equal(t, "c", kept[1].JobKey, "order is preserved")
}

func TestFilterWithoutKeywordsKeepsEverything(t *testing.T) {
	t.Parallel()

	f := NewFilter(nil)
	in := []scraper.JobListing{{JobKey: "a"}, {JobKey: "b"}}
	kept, dropped := f.Apply(in)
	require.Zero(t, dropped)
	require.Equal(t, in, kept)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
	in := []scraper.JobListing{
		{Company: "Initech", WorkFormat: "Hybrid", PostedAt: day(14), DateResolved: true, Salary: "$90,000 a year"},
		{Company: "Initech", WorkFormat: "Remote", PostedAt: day(15), DateResolved: true},
		{Company: "Globex", WorkFormat: "Remote", PostedAt: day(10), DateResolved: true},
		{Company: "Acme", WorkFormat: "Unknown", PostedAtRaw: "see description"},
	}

	s := Summarize(in)
	require.Equal(t, 4, s.Total)
	require.Equal(t, 1, s.Unresolved)
	require.Equal(t, 1, s.WithSalary)
	require.Equal(t, day(10), s.OldestPosted)
	require.Equal(t, day(15), s.NewestPosted)
	require.Equal(t, map[string]int{"Hybrid": 1, "Remote": 2, "Unknown": 1}, s.WorkFormats)

	require.Equal(t, CompanyCount{Company: "Initech", Count: 2}, s.TopCompanies[0])
	require.Equal(t, CompanyCount{Company: "Acme", Count: 1}, s.TopCompanies[1],
		"ties break alphabetically")
	require.Equal(t, CompanyCount{Company: "Globex", Count: 1}, s.TopCompanies[2])
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	require.Zero(t, s.Total)
	require.True(t, s.OldestPosted.IsZero())
	require.Empty(t, s.TopCompanies)
}
