// Package dashboard loads the crawler's sink, derives the cleaned fields,
// and serves interactive filters over them.
package dashboard

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strings"

	"github.com/pbaptista/bookdash/models"
	"github.com/pbaptista/bookdash/parser"
)

// Row is one sink record plus its derived fields. The raw record is kept
// untouched so an export reproduces the original values.
type Row struct {
	Record models.Record

	Price        float64 // NaN when unparseable
	Rating       int     // 0 when unparseable
	Availability string  // canonical "In stock" / "Out of stock"
	ImageURL     string  // absolute
	ShortTitle   string
}

// Load reads the sink CSV at path and derives the cleaned fields, resolving
// relative image URLs against root. A UTF-8 byte-order marker is tolerated.
// Rows with malformed values are retained with missing derived fields; only
// a structurally unreadable file fails. A missing file surfaces as an
// fs.ErrNotExist so the caller can point the user at a remedy instead of
// crashing.
func Load(path string, root *url.URL) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	defer f.Close()

	rows, err := Read(f, root)
	if err != nil {
		return nil, fmt.Errorf("read sink %s: %w", path, err)
	}
	return rows, nil
}

// Read parses sink CSV content from r. Split from Load so uploads and tests
// can feed arbitrary readers.
func Read(r io.Reader, root *url.URL) ([]Row, error) {
	buffered := bufio.NewReader(r)
	if err := skipBOM(buffered); err != nil {
		return nil, err
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("sink has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}

		rec := models.Record{
			Title:        field(record, "Book Title"),
			Price:        field(record, "Book Price"),
			Availability: field(record, "Instock Availability"),
			Rating:       field(record, "Rating"),
			ImageURL:     field(record, "Image URL"),
		}
		rows = append(rows, derive(rec, root))
	}
	return rows, nil
}

func derive(rec models.Record, root *url.URL) Row {
	return Row{
		Record:       rec,
		Price:        parser.ParsePrice(rec.Price),
		Rating:       parser.ParseRating(rec.Rating),
		Availability: parser.CanonicalAvailability(rec.Availability),
		ImageURL:     parser.ResolveImageURL(rec.ImageURL, root),
		ShortTitle:   shorten(rec.Title, 60),
	}
}

// HasPrice reports whether the derived price parsed.
func (r Row) HasPrice() bool {
	return !math.IsNaN(r.Price)
}

func shorten(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func skipBOM(r *bufio.Reader) error {
	const bom = "\ufeff"
	peeked, err := r.Peek(len(bom))
	if err != nil && err != io.EOF {
		return fmt.Errorf("peek bom: %w", err)
	}
	if string(peeked) == bom {
		if _, err := r.Discard(len(bom)); err != nil {
			return fmt.Errorf("discard bom: %w", err)
		}
	}
	return nil
}
