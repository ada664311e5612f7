package sink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobsignal/jobscraper/internal/scraper"
)

func sampleListings() []scraper.JobListing {
	return []scraper.JobListing{
		{
			JobKey:            "abc123",
			Link:              "https://example.test/viewjob?jk=abc123",
			Title:             "Senior Software Engineer",
			Company:           "Initech",
			Location:          "Hybrid work in Austin, TX",
			PostedAt:          time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
			PostedAtRaw:       "2 days ago",
			DateResolved:      true,
			Snippet:           "Build services, with \"quotes\" and, commas.",
			Salary:            "$120,000 - $150,000 a year",
			JobType:           "Full-time",
			WorkFormat:        "Hybrid",
			ProcessedLocation: "Austin, TX",
		},
		{
			JobKey:      "def456",
			Link:        "https://example.test/viewjob?jk=def456",
			Title:       "Data Analyst",
			Company:     "Globex",
			PostedAtRaw: "see job description",
			WorkFormat:  "Unknown",
		},
	}
}

func TestEncodeDecodeCSVRoundTrip(t *testing.T) {
	t.Parallel()

	listings := sampleListings()
	data, err := EncodeCSV(listings)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Equal(t, strings.Join(csvColumns, ","), lines[0])
	require.Len(t, lines, 3)

	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, listings, decoded)
}

func TestEncodeCSVUnresolvedDateIsEmptyCell(t *testing.T) {
	t.Parallel()

	data, err := EncodeCSV(sampleListings())
	require.NoError(t, err)

	require.Contains(t, string(data), "2025-03-13")
	require.Contains(t, string(data), ",see job description,",
		"the raw phrase is carried even when the date is unresolved")

	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.False(t, decoded[1].DateResolved)
	require.True(t, decoded[1].PostedAt.IsZero())
}

func TestEncodeCSVEmptyRunStillHasHeader(t *testing.T) {
	t.Parallel()

	data, err := EncodeCSV(nil)
	require.NoError(t, err)
	require.Equal(t, strings.Join(csvColumns, ",")+"\n", string(data))

	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeCSVRejectsForeignHeader(t *testing.T) {
	t.Parallel()

	_, err := DecodeCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	require.Error(t, err)
}
