// Package postgres provides a PostgreSQL exporter for breakdown storage.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/buffered"
)

//go:embed 001_create_breakdowns.sql
var migrationSQL string

// Config holds the PostgreSQL exporter configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// BatchSize is the number of breakdowns to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// Exporter writes breakdowns to a PostgreSQL database, upserting on
// order id so re-running a date range refreshes rather than duplicates.
type Exporter struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	buffered *buffered.Exporter
}

// New creates a new PostgreSQL exporter and runs its migration.
func New(cfg Config, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)

	e := &Exporter{pool: pool, logger: logger}

	if err := e.runMigrations(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	e.buffered = buffered.New(
		e.writeBatch,
		buffered.Config{BatchSize: cfg.BatchSize, FlushInterval: cfg.FlushInterval},
		logger.With("component", "postgres_buffer"),
	)

	return e, nil
}

func (e *Exporter) runMigrations(ctx context.Context) error {
	e.logger.Info("running database migrations")
	if _, err := e.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	e.logger.Info("migrations completed successfully")
	return nil
}

// Export consumes breakdowns from the channel and writes them to
// PostgreSQL in batches.
func (e *Exporter) Export(ctx context.Context, in <-chan *api.Breakdown) error {
	defer e.Close()
	return e.buffered.Export(ctx, in)
}

// writeBatch upserts a batch of breakdowns in one transaction.
func (e *Exporter) writeBatch(breakdowns []*api.Breakdown) error {
	if len(breakdowns) == 0 {
		return nil
	}

	ctx := context.Background()

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range breakdowns {
		batch.Queue(`
			INSERT INTO breakdowns (
				order_id, order_number, order_date, customer_name, products,
				vendors, product_types, tags, collections,
				order_total, total_cost, base_amount, revenue,
				investor, consigner, vendor, state_taxes, federal_taxes,
				component_breakdown, tax_breakdown, matched_rules
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			          $14, $15, $16, $17, $18, $19, $20, $21)
			ON CONFLICT (order_id) DO UPDATE SET
				order_number = EXCLUDED.order_number,
				order_date = EXCLUDED.order_date,
				customer_name = EXCLUDED.customer_name,
				products = EXCLUDED.products,
				vendors = EXCLUDED.vendors,
				product_types = EXCLUDED.product_types,
				tags = EXCLUDED.tags,
				collections = EXCLUDED.collections,
				order_total = EXCLUDED.order_total,
				total_cost = EXCLUDED.total_cost,
				base_amount = EXCLUDED.base_amount,
				revenue = EXCLUDED.revenue,
				investor = EXCLUDED.investor,
				consigner = EXCLUDED.consigner,
				vendor = EXCLUDED.vendor,
				state_taxes = EXCLUDED.state_taxes,
				federal_taxes = EXCLUDED.federal_taxes,
				component_breakdown = EXCLUDED.component_breakdown,
				tax_breakdown = EXCLUDED.tax_breakdown,
				matched_rules = EXCLUDED.matched_rules,
				updated_at = NOW()
		`,
			b.OrderID, b.OrderNumber, b.Date, b.Customer, b.Products,
			b.Vendors, b.ProductTypes, b.Tags, b.Collections,
			b.OrderTotal, b.TotalCost, b.BaseAmount, b.Revenue,
			b.Investor, b.Consigner, b.Vendor, b.StateTaxes, b.FederalTaxes,
			b.ComponentBreakdown, b.TaxBreakdown, b.MatchedRules,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range breakdowns {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upserting breakdown: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	e.logger.Info("wrote breakdown batch", "count", len(breakdowns))
	return nil
}

// Close closes the database connection pool.
func (e *Exporter) Close() {
	if e.pool != nil {
		e.pool.Close()
		e.logger.Info("closed PostgreSQL connection pool")
	}
}
