// Package jsonfile implements an Exporter that appends breakdowns to a
// JSON array file.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/buffered"
)

// Exporter writes breakdowns to a JSON file with buffered batching.
type Exporter struct {
	filePath   string
	breakdowns []*api.Breakdown
	mu         sync.Mutex
	buffered   *buffered.Exporter
	logger     *slog.Logger
}

// Config holds configuration for the JSON exporter.
type Config struct {
	// FilePath is the path to the JSON output file.
	FilePath string
	// BatchSize is the number of breakdowns to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes (seconds).
	FlushInterval int
}

// New creates a new JSON file exporter. Existing breakdowns in the file
// are preserved and appended to.
func New(cfg Config, logger *slog.Logger) (*Exporter, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("json exporter: file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Exporter{
		filePath:   cfg.FilePath,
		breakdowns: make([]*api.Breakdown, 0),
		logger:     logger,
	}

	if err := e.loadExisting(); err != nil {
		logger.Warn("could not load existing breakdowns", "error", err)
	}

	bufCfg := buffered.Config{BatchSize: cfg.BatchSize}
	if cfg.FlushInterval > 0 {
		bufCfg.FlushInterval = time.Duration(cfg.FlushInterval) * time.Second
	}
	e.buffered = buffered.New(e.flushBatch, bufCfg, logger.With("component", "json_buffer"))

	logger.Info("json exporter initialized", "file", cfg.FilePath, "existing_count", len(e.breakdowns))
	return e, nil
}

func (e *Exporter) loadExisting() error {
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &e.breakdowns)
}

// Export consumes breakdowns from the input channel and writes them to
// the JSON file.
func (e *Exporter) Export(ctx context.Context, in <-chan *api.Breakdown) error {
	return e.buffered.Export(ctx, in)
}

// flushBatch appends a batch and rewrites the file; JSON arrays do not
// support appending in place.
func (e *Exporter) flushBatch(breakdowns []*api.Breakdown) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.breakdowns = append(e.breakdowns, breakdowns...)

	data, err := json.MarshalIndent(e.breakdowns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if err := os.WriteFile(e.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}

	e.logger.Debug("wrote breakdowns to json",
		"batch_count", len(breakdowns),
		"total_count", len(e.breakdowns),
	)
	return nil
}

// Count returns the total number of breakdowns written.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.breakdowns)
}
