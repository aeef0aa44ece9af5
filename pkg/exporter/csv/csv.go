// Package csv implements an Exporter that writes breakdowns to a CSV file
// with one column per consigner/investor label.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/report"
)

// Exporter collects a full batch of breakdowns and writes them as one CSV
// file. The whole batch is needed up front because the consigner/investor
// label columns depend on every row.
type Exporter struct {
	filePath string
	logger   *slog.Logger
}

// Config holds configuration for the CSV exporter.
type Config struct {
	// FilePath is the path to the CSV output file.
	FilePath string
}

// New creates a new CSV exporter.
func New(cfg Config, logger *slog.Logger) (*Exporter, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("csv exporter: file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{filePath: cfg.FilePath, logger: logger}, nil
}

// Export collects breakdowns until the channel closes, then writes the
// file in one pass.
func (e *Exporter) Export(ctx context.Context, in <-chan *api.Breakdown) error {
	var breakdowns []*api.Breakdown
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-in:
			if !ok {
				return e.writeAll(breakdowns)
			}
			breakdowns = append(breakdowns, b)
		}
	}
}

func (e *Exporter) writeAll(breakdowns []*api.Breakdown) error {
	if len(breakdowns) == 0 {
		e.logger.Info("no breakdowns to export, skipping csv write")
		return nil
	}

	table := report.Build(breakdowns)

	f, err := os.OpenFile(e.filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}
	if err := w.Write(table.Totals); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	e.logger.Info("csv export complete", "file", e.filePath, "orders", len(breakdowns))
	return nil
}
