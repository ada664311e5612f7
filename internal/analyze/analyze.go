// Package analyze post-processes a finished scrape: keyword filtering and a
// run summary for the logs.
package analyze

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsignal/jobscraper/internal/scraper"
)

// Filter keeps listings whose title matches at least one keyword,
// case-insensitively. An empty keyword set keeps everything.
type Filter struct {
	keywords []string
}

// NewFilter lowercases and trims the keyword set once.
func NewFilter(keywords []string) *Filter {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return &Filter{keywords: cleaned}
}

// Apply returns the listings whose titles match, preserving order, plus the
// count of listings dropped.
func (f *Filter) Apply(listings []scraper.JobListing) ([]scraper.JobListing, int) {
	if len(f.keywords) == 0 {
		return listings, 0
	}
	kept := make([]scraper.JobListing, 0, len(listings))
	for _, l := range listings {
		if f.matches(l.Title) {
			kept = append(kept, l)
		}
	}
	return kept, len(listings) - len(kept)
}

func (f *Filter) matches(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Summary aggregates a run's accepted listings for the completion log line.
type Summary struct {
	Total        int
	Unresolved   int
	WithSalary   int
	OldestPosted time.Time
	NewestPosted time.Time
	TopCompanies []CompanyCount
	WorkFormats  map[string]int
}

// CompanyCount pairs a company with its listing count.
type CompanyCount struct {
	Company string
	Count   int
}

// Summarize computes the run summary. Companies tie-break alphabetically so
// the output is deterministic.
func Summarize(listings []scraper.JobListing) Summary {
	s := Summary{WorkFormats: make(map[string]int)}
	companies := make(map[string]int)
	for _, l := range listings {
		s.Total++
		if !l.DateResolved {
			s.Unresolved++
		} else {
			if s.OldestPosted.IsZero() || l.PostedAt.Before(s.OldestPosted) {
				s.OldestPosted = l.PostedAt
			}
			if l.PostedAt.After(s.NewestPosted) {
				s.NewestPosted = l.PostedAt
			}
		}
		if l.Salary != "" {
			s.WithSalary++
		}
		if l.Company != "" {
			companies[l.Company]++
		}
		s.WorkFormats[l.WorkFormat]++
	}

	for company, count := range companies {
		s.TopCompanies = append(s.TopCompanies, CompanyCount{Company: company, Count: count})
	}
	sort.Slice(s.TopCompanies, func(i, j int) bool {
		if s.TopCompanies[i].Count != s.TopCompanies[j].Count {
			return s.TopCompanies[i].Count > s.TopCompanies[j].Count
		}
		return s.TopCompanies[i].Company < s.TopCompanies[j].Company
	})
	if len(s.TopCompanies) > 5 {
		s.TopCompanies = s.TopCompanies[:5]
	}
	return s
}

// Log writes the summary as one structured line.
func (s Summary) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.Int("listings", s.Total),
		zap.Int("dates_unresolved", s.Unresolved),
		zap.Int("with_salary", s.WithSalary),
		zap.Any("work_formats", s.WorkFormats),
	}
	if !s.OldestPosted.IsZero() {
		fields = append(fields,
			zap.String("oldest_posted", s.OldestPosted.Format("2006-01-02")),
			zap.String("newest_posted", s.NewestPosted.Format("2006-01-02")))
	}
	if len(s.TopCompanies) > 0 {
		fields = append(fields, zap.Any("top_companies", s.TopCompanies))
	}
	logger.Info("run summary", fields...)
}
