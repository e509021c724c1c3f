package dashboard

import (
	"math"
	"strings"
)

// Filter selects rows over the derived fields. Zero value matches everything.
type Filter struct {
	MinPrice     float64 // NaN = unset
	MaxPrice     float64 // NaN = unset
	Ratings      map[int]bool
	Availability string // "", "In stock", or "Out of stock"
	TitleQuery   string
}

// NewFilter returns a filter with no bounds set.
func NewFilter() Filter {
	return Filter{
		MinPrice: math.NaN(),
		MaxPrice: math.NaN(),
	}
}

// Match reports whether row passes every set criterion. A row whose price is
// missing fails any price bound that is set; a row whose rating is missing
// fails any rating selection. "Missing" never matches a constraint, but rows
// are only excluded by constraints actually set.
func (f Filter) Match(row Row) bool {
	if !math.IsNaN(f.MinPrice) && !(row.HasPrice() && row.Price >= f.MinPrice) {
		return false
	}
	if !math.IsNaN(f.MaxPrice) && !(row.HasPrice() && row.Price <= f.MaxPrice) {
		return false
	}
	if len(f.Ratings) > 0 && !f.Ratings[row.Rating] {
		return false
	}
	if f.Availability != "" && row.Availability != f.Availability {
		return false
	}
	if f.TitleQuery != "" &&
		!strings.Contains(strings.ToLower(row.Record.Title), strings.ToLower(f.TitleQuery)) {
		return false
	}
	return true
}

// Apply returns the rows matching f, preserving order.
func Apply(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// Summary aggregates a row set for the dashboard header.
type Summary struct {
	Count     int
	AvgPrice  float64 // NaN when no row has a price
	AvgRating float64 // NaN when no row has a rating
	InStock   int
}

// Summarize computes header metrics over rows. Missing values are excluded
// from the averages, not treated as zero.
func Summarize(rows []Row) Summary {
	s := Summary{Count: len(rows), AvgPrice: math.NaN(), AvgRating: math.NaN()}

	priceSum, priceN := 0.0, 0
	ratingSum, ratingN := 0, 0
	for _, row := range rows {
		if row.HasPrice() {
			priceSum += row.Price
			priceN++
		}
		if row.Rating > 0 {
			ratingSum += row.Rating
			ratingN++
		}
		if row.Availability == "In stock" {
			s.InStock++
		}
	}
	if priceN > 0 {
		s.AvgPrice = priceSum / float64(priceN)
	}
	if ratingN > 0 {
		s.AvgRating = float64(ratingSum) / float64(ratingN)
	}
	return s
}

// RatingCounts tallies rows per rating level 1..5 for the ratings chart.
func RatingCounts(rows []Row) [5]int {
	var counts [5]int
	for _, row := range rows {
		if row.Rating >= 1 && row.Rating <= 5 {
			counts[row.Rating-1]++
		}
	}
	return counts
}
