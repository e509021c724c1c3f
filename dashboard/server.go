package dashboard

import (
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// priceBins is the bucket count of the price distribution chart.
const priceBins = 8

// Server serves the dashboard UI and the filtered CSV export over a loaded
// row set. The row set can be replaced through the upload route, so access
// goes through the lock.
type Server struct {
	mu     sync.RWMutex
	rows   []Row
	root   *url.URL
	logger *slog.Logger
	tmpl   *template.Template
}

// NewServer builds a dashboard server over rows. Uploaded files resolve
// relative image URLs against root.
func NewServer(rows []Row, root *url.URL, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.New("index").Funcs(template.FuncMap{
		"fmtFloat": func(v float64) string {
			if math.IsNaN(v) {
				return "–"
			}
			return fmt.Sprintf("%.2f", v)
		},
		"fmtRating": func(v int) string {
			if v <= 0 {
				return "–"
			}
			return strconv.Itoa(v)
		},
	}).Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Server{rows: rows, root: root, logger: logger, tmpl: tmpl}, nil
}

// Handler returns the root handler, routed by hand.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.router)
}

func (s *Server) router(w http.ResponseWriter, req *http.Request) {
	s.logger.Info("request", slog.String("method", req.Method), slog.String("path", req.URL.Path))
	switch req.URL.Path {
	case "/":
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.indexHandler(w, req)
	case "/export.csv":
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.exportHandler(w, req)
	case "/upload":
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.uploadHandler(w, req)
	default:
		http.NotFound(w, req)
	}
}

func (s *Server) snapshot() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

type ratingBar struct {
	Rating  int
	Count   int
	Percent int
}

type priceBar struct {
	Label   string
	Count   int
	Percent int
}

type indexData struct {
	Summary    Summary
	Bars       []ratingBar
	PriceBars  []priceBar
	Rows       []Row
	Gallery    []Row
	Query      filterQuery
	ExportHref string
	Total      int
}

// filterQuery echoes the request parameters back into the form.
type filterQuery struct {
	MinPrice     string
	MaxPrice     string
	Ratings      map[int]bool
	Availability string
	Title        string
	MaxImages    int
}

func (s *Server) indexHandler(w http.ResponseWriter, req *http.Request) {
	all := s.snapshot()
	f, q := parseFilter(req.URL.Query())
	filtered := Apply(all, f)

	counts := RatingCounts(filtered)
	maxCount := 1
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	bars := make([]ratingBar, 0, 5)
	for i, c := range counts {
		bars = append(bars, ratingBar{
			Rating:  i + 1,
			Count:   c,
			Percent: c * 100 / maxCount,
		})
	}

	gallery := filtered
	if len(gallery) > q.MaxImages {
		gallery = gallery[:q.MaxImages]
	}

	data := indexData{
		Summary:    Summarize(filtered),
		Bars:       bars,
		PriceBars:  priceBars(filtered, priceBins),
		Rows:       filtered,
		Gallery:    gallery,
		Query:      q,
		ExportHref: "/export.csv?" + req.URL.RawQuery,
		Total:      len(all),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("render index", slog.Any("error", err))
	}
}

func (s *Server) exportHandler(w http.ResponseWriter, req *http.Request) {
	f, _ := parseFilter(req.URL.Query())
	filtered := Apply(s.snapshot(), f)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="books_filtered.csv"`)
	if err := WriteCSV(w, filtered); err != nil {
		s.logger.Error("export csv", slog.Any("error", err))
	}
}

// uploadHandler replaces the row set with an uploaded sink CSV.
func (s *Server) uploadHandler(w http.ResponseWriter, req *http.Request) {
	file, _, err := req.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := Read(file, s.root)
	if err != nil {
		http.Error(w, fmt.Sprintf("unreadable csv: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	s.logger.Info("row set replaced", slog.Int("rows", len(rows)))
	http.Redirect(w, req, "/", http.StatusSeeOther)
}

// priceBars bins the priced rows into bins equal-width buckets for the
// distribution chart. Rows without a price are left out, matching the
// summary averages.
func priceBars(rows []Row, bins int) []priceBar {
	lo, hi := math.NaN(), math.NaN()
	for _, row := range rows {
		if !row.HasPrice() {
			continue
		}
		if math.IsNaN(lo) || row.Price < lo {
			lo = row.Price
		}
		if math.IsNaN(hi) || row.Price > hi {
			hi = row.Price
		}
	}
	if math.IsNaN(lo) {
		return nil
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, row := range rows {
		if !row.HasPrice() {
			continue
		}
		i := bins - 1
		if width > 0 {
			i = int((row.Price - lo) / width)
			if i >= bins {
				i = bins - 1
			}
		}
		counts[i]++
	}

	maxCount := 1
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	bars := make([]priceBar, 0, bins)
	for i, c := range counts {
		from := lo + float64(i)*width
		bars = append(bars, priceBar{
			Label:   fmt.Sprintf("%.0f-%.0f", from, from+width),
			Count:   c,
			Percent: c * 100 / maxCount,
		})
	}
	return bars
}

// parseFilter maps query parameters onto a Filter. Malformed numbers are
// ignored rather than rejected, matching the best-effort contract elsewhere.
func parseFilter(values url.Values) (Filter, filterQuery) {
	f := NewFilter()
	q := filterQuery{
		Ratings:   make(map[int]bool),
		MaxImages: 12,
	}

	if raw := values.Get("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.MinPrice = v
			q.MinPrice = raw
		}
	}
	if raw := values.Get("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.MaxPrice = v
			q.MaxPrice = raw
		}
	}
	for _, raw := range values["rating"] {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= 5 {
			if f.Ratings == nil {
				f.Ratings = make(map[int]bool)
			}
			f.Ratings[v] = true
			q.Ratings[v] = true
		}
	}
	switch values.Get("availability") {
	case "in":
		f.Availability = "In stock"
		q.Availability = "in"
	case "out":
		f.Availability = "Out of stock"
		q.Availability = "out"
	}
	if raw := values.Get("q"); raw != "" {
		f.TitleQuery = raw
		q.Title = raw
	}
	if raw := values.Get("images"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			q.MaxImages = v
		}
	}
	return f, q
}
