// Package exporter writes the published analytical tables as CSV files and
// an analyst workbook. Writes go to a staging directory first; the published
// directory is only swapped in once every table is on disk, so a failed run
// never exposes partial tables.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes output tables as CSV files.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV table writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteTable writes one table to dir as <name>.csv with a UTF-8 BOM for
// spreadsheet compatibility.
func (w *CSVWriter) WriteTable(dir string, table Table) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, table.Name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Headers); err != nil {
		return fmt.Errorf("write headers for %s: %w", table.Name, err)
	}
	for i, record := range table.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d of %s: %w", i, table.Name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", table.Name, err)
	}

	w.logger.Info("wrote table",
		slog.String("table", table.Name),
		slog.String("path", path),
		slog.Int("rows", len(table.Records)),
	)

	return nil
}
