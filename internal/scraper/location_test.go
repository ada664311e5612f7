package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitWorkFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantFormat string
		wantPlace  string
	}{
		{name: "hybrid with place", raw: "Hybrid work in Austin, TX", wantFormat: "Hybrid", wantPlace: "Austin, TX"},
		{name: "remote with place", raw: "Remote in New York, NY", wantFormat: "Remote", wantPlace: "New York, NY"},
		{name: "remote only", raw: "Remote", wantFormat: "Remote", wantPlace: ""},
		{name: "in person with place", raw: "In Person work in Chicago, IL", wantFormat: "In Person", wantPlace: "Chicago, IL"},
		{name: "plain place", raw: "Denver, CO", wantFormat: "Unknown", wantPlace: "Denver, CO"},
		{name: "empty", raw: "", wantFormat: "Unknown", wantPlace: ""},
		{name: "extra whitespace collapsed", raw: "  Hybrid   work in   Boston,  MA ", wantFormat: "Hybrid", wantPlace: "Boston, MA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, place := SplitWorkFormat(tt.raw)
			require.Equal(t, tt.wantFormat, format)
			require.Equal(t, tt.wantPlace, place)
		})
	}
}
