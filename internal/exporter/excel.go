package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WorkbookName is the file name of the analyst workbook export.
const WorkbookName = "customer_analytics.xlsx"

// ExcelWriter writes all output tables into a single workbook, one sheet per
// table, for analysts who work outside the dashboard.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a workbook writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteWorkbook writes the tables to dir as one xlsx workbook. Sheet names
// are the table names truncated to Excel's 31-character limit.
func (w *ExcelWriter) WriteWorkbook(dir string, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("write workbook: no tables")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	for i, table := range tables {
		sheet := sheetName(table.Name)
		if i == 0 {
			if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("rename default sheet: %w", err)
			}
		} else {
			if _, err := book.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		if err := writeSheet(book, sheet, table); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet, err)
		}
	}

	path := filepath.Join(dir, WorkbookName)
	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("wrote analyst workbook",
		slog.String("path", path),
		slog.Int("sheets", len(tables)),
	)

	return nil
}

func writeSheet(book *excelize.File, sheet string, table Table) error {
	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, record := range table.Records {
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func sheetName(table string) string {
	if len(table) > 31 {
		return table[:31]
	}
	return table
}
