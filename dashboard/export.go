package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pbaptista/bookdash/pipeline"
)

// WriteCSV exports rows back to the sink schema: same five literal columns,
// same order, raw values unchanged, UTF-8 BOM prefix.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(pipeline.CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Record.Title,
			row.Record.Price,
			row.Record.Availability,
			row.Record.Rating,
			row.Record.ImageURL,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}
