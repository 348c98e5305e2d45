package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Publisher materializes tables into a run-private staging directory and
// swaps the published directory only after every write succeeded. Downstream
// consumers never see a half-written run.
type Publisher struct {
	stagingDir   string
	publishedDir string
	csv          *CSVWriter
	excel        *ExcelWriter
	writeExcel   bool
	logger       *slog.Logger
}

// NewPublisher creates a staged table publisher. When writeExcel is set the
// analyst workbook is produced alongside the per-table CSVs.
func NewPublisher(stagingDir, publishedDir string, writeExcel bool, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		stagingDir:   stagingDir,
		publishedDir: publishedDir,
		csv:          NewCSVWriter(logger),
		excel:        NewExcelWriter(logger),
		writeExcel:   writeExcel,
		logger:       logger,
	}
}

// Stage writes every table into the staging directory, replacing any residue
// of an aborted earlier run.
func (p *Publisher) Stage(tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("stage tables: nothing to write")
	}

	if err := os.RemoveAll(p.stagingDir); err != nil {
		return fmt.Errorf("clear staging directory: %w", err)
	}

	for _, table := range tables {
		if err := p.csv.WriteTable(p.stagingDir, table); err != nil {
			return fmt.Errorf("stage table %s: %w", table.Name, err)
		}
	}

	if p.writeExcel {
		if err := p.excel.WriteWorkbook(p.stagingDir, tables); err != nil {
			return fmt.Errorf("stage workbook: %w", err)
		}
	}

	return nil
}

// Publish atomically replaces the published directory with the staged run.
func (p *Publisher) Publish() error {
	if _, err := os.Stat(p.stagingDir); err != nil {
		return fmt.Errorf("staging directory not ready: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.publishedDir), 0755); err != nil {
		return fmt.Errorf("create publish parent: %w", err)
	}
	if err := os.RemoveAll(p.publishedDir); err != nil {
		return fmt.Errorf("remove previous publication: %w", err)
	}
	if err := os.Rename(p.stagingDir, p.publishedDir); err != nil {
		return fmt.Errorf("publish staged tables: %w", err)
	}

	p.logger.Info("published output tables", slog.String("dir", p.publishedDir))
	return nil
}

// PublishedDir returns the directory downstream consumers read from.
func (p *Publisher) PublishedDir() string {
	return p.publishedDir
}
