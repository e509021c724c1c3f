// Package models defines data structures shared by the crawler and the dashboard.
package models

import "time"

// Record is one catalogue item as written to the output sink. Every field is
// optional-safe: a selector that matched nothing leaves an empty string.
type Record struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	Rating       string `json:"rating"`
	ImageURL     string `json:"image_url"`
}

// PageResult is the outcome of extracting one catalogue page: the records in
// document order plus the raw href of the next page, or "" when the page has
// no forward link.
type PageResult struct {
	Records []*Record
	Next    string
}

// CrawlResult holds the overall report of a crawl run.
type CrawlResult struct {
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	RecordCount  int
	ErrorCount   int
	ErrorsByType map[string]int
	FinalURL     string
}
