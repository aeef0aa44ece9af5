// Package buffered provides a buffered exporter base for batch writes.
package buffered

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/orderfall/orderfall/pkg/api"
)

// DefaultBatchSize is the default number of breakdowns to buffer before
// flushing.
const DefaultBatchSize = 25

// DefaultFlushInterval is the default interval between automatic flushes.
const DefaultFlushInterval = 15 * time.Second

// Flusher is called when the buffer needs to be flushed.
type Flusher func(breakdowns []*api.Breakdown) error

// Config holds configuration for buffered exporting.
type Config struct {
	// BatchSize is the number of breakdowns to buffer before flushing.
	// Defaults to DefaultBatchSize.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	// Defaults to DefaultFlushInterval.
	FlushInterval time.Duration
}

// Exporter buffers breakdowns and flushes them in batches.
type Exporter struct {
	buffer  []*api.Breakdown
	mu      sync.Mutex
	flusher Flusher
	config  Config
	logger  *slog.Logger
}

// New creates a buffered exporter around the given flusher function.
func New(flusher Flusher, cfg Config, logger *slog.Logger) *Exporter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Exporter{
		buffer:  make([]*api.Breakdown, 0, cfg.BatchSize),
		flusher: flusher,
		config:  cfg,
		logger:  logger,
	}
}

// Export consumes breakdowns from the input channel and flushes them in
// batches. It returns once the channel closes (after a final flush) or the
// context is canceled.
func (e *Exporter) Export(ctx context.Context, in <-chan *api.Breakdown) error {
	ticker := time.NewTicker(e.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("exporter stopping, flushing remaining buffer")
			if err := e.flush(); err != nil {
				e.logger.Error("failed to flush on shutdown", "error", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if err := e.flush(); err != nil {
				e.logger.Error("failed to flush on interval", "error", err)
			}

		case b, ok := <-in:
			if !ok {
				return e.flush()
			}

			e.mu.Lock()
			e.buffer = append(e.buffer, b)
			full := len(e.buffer) >= e.config.BatchSize
			e.mu.Unlock()

			if full {
				if err := e.flush(); err != nil {
					return err
				}
			}
		}
	}
}

func (e *Exporter) flush() error {
	e.mu.Lock()
	if len(e.buffer) == 0 {
		e.mu.Unlock()
		return nil
	}
	toFlush := make([]*api.Breakdown, len(e.buffer))
	copy(toFlush, e.buffer)
	e.buffer = e.buffer[:0]
	e.mu.Unlock()

	if err := e.flusher(toFlush); err != nil {
		return err
	}

	e.logger.Debug("flushed breakdowns", "count", len(toFlush))
	return nil
}

// BufferLen returns the current number of buffered breakdowns.
func (e *Exporter) BufferLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buffer)
}
