package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jobsignal/jobscraper/internal/scraper"
)

// csvColumns is the artifact header row. The warehouse table schema mirrors
// it column for column, so order changes here are breaking.
var csvColumns = []string{
	"job_key",
	"link",
	"title",
	"company",
	"posted_date",
	"posted_raw",
	"location",
	"salary",
	"job_type",
	"work_format",
	"processed_location",
	"snippet",
}

const postedDateLayout = "2006-01-02"

// EncodeCSV serializes listings into the artifact format: a header row
// followed by one row per listing in accumulation order. An unresolved posted
// date serializes as an empty cell; the raw phrase is always carried.
func EncodeCSV(listings []scraper.JobListing) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, l := range listings {
		postedDate := ""
		if l.DateResolved {
			postedDate = l.PostedAt.Format(postedDateLayout)
		}
		row := []string{
			l.JobKey,
			l.Link,
			l.Title,
			l.Company,
			postedDate,
			l.PostedAtRaw,
			l.Location,
			l.Salary,
			l.JobType,
			l.WorkFormat,
			l.ProcessedLocation,
			l.Snippet,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses an artifact back into listings. Only the columns present
// in the artifact survive the round trip; page provenance does not.
func DecodeCSV(r io.Reader) ([]scraper.JobListing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvColumns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range csvColumns {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected column %d: got %q want %q", i, header[i], col)
		}
	}

	var listings []scraper.JobListing
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		l := scraper.JobListing{
			JobKey:            row[0],
			Link:              row[1],
			Title:             row[2],
			Company:           row[3],
			PostedAtRaw:       row[5],
			Location:          row[6],
			Salary:            row[7],
			JobType:           row[8],
			WorkFormat:        row[9],
			ProcessedLocation: row[10],
			Snippet:           row[11],
		}
		if row[4] != "" {
			t, err := time.Parse(postedDateLayout, row[4])
			if err != nil {
				return nil, fmt.Errorf("parse posted_date %q: %w", row[4], err)
			}
			l.PostedAt = t
			l.DateResolved = true
		}
		listings = append(listings, l)
	}
	return listings, nil
}
