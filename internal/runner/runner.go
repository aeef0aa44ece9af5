// Package runner wires a source, the breakdown engine, and an exporter
// into a single pipeline run.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/engine"
)

// Options configures a pipeline run.
type Options struct {
	// SourceName and ExporterName select registered plugins.
	SourceName   string
	ExporterName string

	// SourceConfig and ExporterConfig are passed to the plugins verbatim.
	SourceConfig   json.RawMessage
	ExporterConfig json.RawMessage

	// HTTPClient is handed to plugins that talk to OAuth-protected APIs.
	// May be nil when no selected plugin requires scopes.
	HTTPClient *http.Client

	// Engine computes breakdowns for fetched orders.
	Engine *engine.Engine
}

// Runner executes the fetch / calculate / export pipeline.
type Runner struct {
	registry *plugins.Registry
	logger   *slog.Logger
}

// New creates a runner over the given plugin registry.
func New(registry *plugins.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger}
}

// Run fetches orders from the source, computes a breakdown per order, and
// streams the results into the exporter. It returns once the exporter has
// flushed everything or the context is canceled. Orders whose breakdown
// fails are logged and skipped without aborting the run.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if opts.Engine == nil {
		return fmt.Errorf("runner: engine is required")
	}

	source, err := r.registry.CreateSource(opts.SourceName, opts.HTTPClient, opts.SourceConfig, r.logger)
	if err != nil {
		return fmt.Errorf("creating source %q: %w", opts.SourceName, err)
	}

	exporter, err := r.registry.CreateExporter(opts.ExporterName, opts.HTTPClient, opts.ExporterConfig, r.logger)
	if err != nil {
		return fmt.Errorf("creating exporter %q: %w", opts.ExporterName, err)
	}

	r.logger.Info("starting pipeline",
		"source", opts.SourceName,
		"exporter", opts.ExporterName,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	orders := make(chan *api.Order, 50)
	breakdowns := make(chan *api.Breakdown, 50)

	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- source.Fetch(ctx, orders)
	}()

	exportErr := make(chan error, 1)
	go func() {
		exportErr <- exporter.Export(ctx, breakdowns)
	}()

	var stats api.Stats
	for order := range orders {
		b, err := opts.Engine.Process(*order)
		if err != nil {
			r.logger.Error("skipping order, breakdown failed",
				"order_id", order.ID,
				"order_number", order.OrderNumber,
				"error", err,
			)
			continue
		}

		stats.Total++
		if b.Matched() {
			stats.Matched++
		} else {
			stats.Unmatched++
		}

		select {
		case breakdowns <- b:
		case err := <-exportErr:
			// The exporter is gone, so nothing drains breakdowns anymore.
			// Stop the source and drain what it already queued before
			// reporting the failure.
			cancel()
			for range orders {
			}
			<-fetchErr
			if err == nil {
				err = errors.New("exporter stopped before its input closed")
			}
			return fmt.Errorf("exporting breakdowns: %w", err)
		case <-ctx.Done():
			close(breakdowns)
			<-exportErr
			<-fetchErr
			return ctx.Err()
		}
	}
	close(breakdowns)

	if err := <-exportErr; err != nil {
		<-fetchErr
		return fmt.Errorf("exporting breakdowns: %w", err)
	}
	if err := <-fetchErr; err != nil {
		return fmt.Errorf("fetching orders: %w", err)
	}

	r.logger.Info("pipeline complete",
		"total", stats.Total,
		"matched", stats.Matched,
		"unmatched", stats.Unmatched,
	)
	return nil
}
