package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/internal/runner"
	"github.com/orderfall/orderfall/pkg/client"
	"github.com/orderfall/orderfall/pkg/config"
	"github.com/orderfall/orderfall/pkg/engine"
	csvplugin "github.com/orderfall/orderfall/pkg/plugins/exporters/csv"
	jsonplugin "github.com/orderfall/orderfall/pkg/plugins/exporters/jsonfile"
	pgplugin "github.com/orderfall/orderfall/pkg/plugins/exporters/postgres"
	sheetsplugin "github.com/orderfall/orderfall/pkg/plugins/exporters/sheets"
	dummyplugin "github.com/orderfall/orderfall/pkg/plugins/sources/dummy"
	shopifyplugin "github.com/orderfall/orderfall/pkg/plugins/sources/shopify"
	"github.com/orderfall/orderfall/pkg/rules"
)

const defaultRulesFile = "data/rules.json"

// run loads configuration, builds the plugin registry, and executes one
// fetch / calculate / export pipeline over the configured date range.
func run(logger *slog.Logger) error {
	k := koanf.New(".")

	// Load configuration from environment variables
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg config.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}

	registry := plugins.NewRegistry()
	for _, register := range []func(*plugins.Registry) error{
		shopifyplugin.Register,
		dummyplugin.Register,
		csvplugin.Register,
		jsonplugin.Register,
		sheetsplugin.Register,
		pgplugin.Register,
	} {
		if err := register(registry); err != nil {
			return fmt.Errorf("registering plugins: %w", err)
		}
	}

	if err := applyDefaults(&cfg); err != nil {
		return err
	}

	rulesFile := cfg.RulesFile
	if rulesFile == "" {
		rulesFile = defaultRulesFile
	}
	ruleSet, err := rules.Load(rulesFile)
	if err != nil {
		return fmt.Errorf("loading rules from %s: %w", rulesFile, err)
	}

	base, err := engine.ParseBaseSource(cfg.BaseAmount)
	if err != nil {
		return err
	}

	logger.Info("configuration loaded",
		"source", cfg.SourcePlugin,
		"exporter", cfg.ExporterPlugin,
		"rules_count", len(ruleSet),
		"start_date", cfg.StartDate,
		"end_date", cfg.EndDate,
	)

	// Only build an OAuth client when a selected plugin declares scopes.
	var httpClient *http.Client
	sourcePlugin, err := registry.GetSource(cfg.SourcePlugin)
	if err != nil {
		return err
	}
	exporterPlugin, err := registry.GetExporter(cfg.ExporterPlugin)
	if err != nil {
		return err
	}
	scopes := plugins.ScopesFor(sourcePlugin, exporterPlugin)
	if len(scopes) > 0 {
		httpClient, err = client.New(client.DefaultSecretFile, client.DefaultTokenFile, scopes...)
		if err != nil {
			return fmt.Errorf("creating oauth client: %w", err)
		}
	}

	eng := engine.New(engine.Config{
		Rules:   ruleSet,
		Base:    base,
		Workers: cfg.Workers,
	}, logger.With("component", "engine"))

	// Setup context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	r := runner.New(registry, logger)
	err = r.Run(ctx, runner.Options{
		SourceName:     cfg.SourcePlugin,
		ExporterName:   cfg.ExporterPlugin,
		SourceConfig:   json.RawMessage(cfg.SourceConfig),
		ExporterConfig: json.RawMessage(cfg.ExporterConfig),
		HTTPClient:     httpClient,
		Engine:         eng,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// applyDefaults fills in source and exporter selections when the
// environment does not pick them explicitly. Without Shopify credentials
// the sample-order source runs, so the pipeline works out of the box.
func applyDefaults(cfg *config.Config) error {
	if cfg.StartDate == "" || cfg.EndDate == "" {
		return fmt.Errorf("ORDERFALL_START_DATE and ORDERFALL_END_DATE are required")
	}

	if cfg.SourcePlugin == "" {
		if cfg.Shopify.ShopDomain != "" && cfg.Shopify.AccessToken != "" {
			cfg.SourcePlugin = "shopify"
		} else {
			cfg.SourcePlugin = "dummy"
		}
	}
	if cfg.ExporterPlugin == "" {
		cfg.ExporterPlugin = "csv"
	}

	if cfg.SourceConfig == "" {
		raw, err := defaultSourceConfig(cfg)
		if err != nil {
			return err
		}
		cfg.SourceConfig = string(raw)
	}
	if cfg.ExporterConfig == "" {
		raw, err := defaultExporterConfig(cfg)
		if err != nil {
			return err
		}
		cfg.ExporterConfig = string(raw)
	}
	return nil
}

func defaultSourceConfig(cfg *config.Config) ([]byte, error) {
	switch cfg.SourcePlugin {
	case "shopify":
		return json.Marshal(map[string]any{
			"shop_domain":  cfg.Shopify.ShopDomain,
			"access_token": cfg.Shopify.AccessToken,
			"api_version":  cfg.Shopify.APIVersion,
			"start_date":   cfg.StartDate,
			"end_date":     cfg.EndDate,
		})
	case "dummy":
		return json.Marshal(map[string]any{
			"start_date": cfg.StartDate,
			"end_date":   cfg.EndDate,
		})
	default:
		return nil, fmt.Errorf("ORDERFALL_SOURCE_CONFIG is required for source %q", cfg.SourcePlugin)
	}
}

func defaultExporterConfig(cfg *config.Config) ([]byte, error) {
	switch cfg.ExporterPlugin {
	case "csv":
		return json.Marshal(map[string]any{"file_path": "data/breakdowns.csv"})
	case "json":
		return json.Marshal(map[string]any{"file_path": "data/breakdowns.json"})
	case "sheets":
		return json.Marshal(map[string]any{
			"spreadsheet_title": cfg.Sheets.Title,
			"spreadsheet_id":    cfg.Sheets.ID,
		})
	case "postgres":
		return json.Marshal(map[string]any{
			"host":     cfg.Postgres.Host,
			"port":     cfg.Postgres.Port,
			"database": cfg.Postgres.Database,
			"user":     cfg.Postgres.User,
			"password": cfg.Postgres.Password,
			"sslmode":  cfg.Postgres.SSLMode,
		})
	default:
		return nil, fmt.Errorf("ORDERFALL_EXPORTER_CONFIG is required for exporter %q", cfg.ExporterPlugin)
	}
}
