package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbaptista/bookdash/models"
)

func sampleRecord() *models.Record {
	return &models.Record{
		Title:        "A Light in the Attic",
		Price:        "£51.77",
		Availability: "In stock",
		Rating:       "Three",
		ImageURL:     "http://example.test/media/attic.jpg",
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books_info.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	records := make([]*models.Record, 0, 5)
	for i := 1; i <= 5; i++ {
		rec := sampleRecord()
		rec.Title = fmt.Sprintf("Book %d", i)
		records = append(records, rec)
	}
	if err := writer.Write(records); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\ufeff")) {
		t.Fatalf("csv file must start with a UTF-8 BOM")
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff"))))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows=%d, want header plus 5", len(rows))
	}

	wantHeader := []string{"Book Title", "Book Price", "Instock Availability", "Rating", "Image URL"}
	for i, name := range wantHeader {
		if rows[0][i] != name {
			t.Fatalf("header[%d]=%q, want %q", i, rows[0][i], name)
		}
	}

	for i, rec := range records {
		row := rows[i+1]
		got := []string{rec.Title, rec.Price, rec.Availability, rec.Rating, rec.ImageURL}
		for col := range got {
			if row[col] != got[col] {
				t.Fatalf("row %d col %d = %q, want %q unchanged", i, col, row[col], got[col])
			}
		}
	}
}

func TestCSVWriterOverwritesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books_info.csv")

	first, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := first.Write([]*models.Record{sampleRecord(), sampleRecord()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	second, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("reopen csv writer: %v", err)
	}
	if err := second.Write([]*models.Record{sampleRecord()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff"))))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want header plus 1 after overwrite", len(rows))
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([]*models.Record{sampleRecord()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.Record
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.Title != "A Light in the Attic" {
			t.Fatalf("title=%q", decoded.Title)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "books.csv")
	jsonPath := filepath.Join(dir, "books.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([]*models.Record{sampleRecord()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}
