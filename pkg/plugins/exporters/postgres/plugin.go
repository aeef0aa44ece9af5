// Package postgres registers the PostgreSQL exporter as a plugin.
package postgres

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/postgres"
)

// Plugin implements plugins.ExporterPlugin for PostgreSQL.
type Plugin struct{}

type pluginConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port,omitempty"`
	Database      string `json:"database"`
	User          string `json:"user"`
	Password      string `json:"password"`
	SSLMode       string `json:"sslmode,omitempty"`
	BatchSize     int    `json:"batch_size,omitempty"`
	FlushInterval int    `json:"flush_interval,omitempty"`
	MaxPoolSize   int    `json:"max_pool_size,omitempty"`
}

func (p *Plugin) Name() string {
	return "postgres"
}

func (p *Plugin) Description() string {
	return "Upserts breakdowns into a PostgreSQL table"
}

func (p *Plugin) RequiredScopes() []string {
	return nil
}

func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"host":           map[string]any{"type": "string", "description": "Database host"},
			"port":           map[string]any{"type": "integer", "description": "Database port, default 5432"},
			"database":       map[string]any{"type": "string", "description": "Database name"},
			"user":           map[string]any{"type": "string", "description": "Database user"},
			"password":       map[string]any{"type": "string", "description": "Database password"},
			"sslmode":        map[string]any{"type": "string", "description": "SSL mode, default disable"},
			"batch_size":     map[string]any{"type": "integer", "description": "Breakdowns buffered per write"},
			"flush_interval": map[string]any{"type": "integer", "description": "Seconds between automatic flushes"},
			"max_pool_size":  map[string]any{"type": "integer", "description": "Maximum pooled connections"},
		},
		"required": []string{"host", "database", "user", "password"},
	}
}

func (p *Plugin) NewExporter(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg pluginConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing postgres exporter config: %w", err)
	}

	return postgres.New(postgres.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Database:      cfg.Database,
		User:          cfg.User,
		Password:      cfg.Password,
		SSLMode:       cfg.SSLMode,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
		MaxPoolSize:   cfg.MaxPoolSize,
	}, logger)
}

// Register adds the plugin to the registry.
func Register(r *plugins.Registry) error {
	return r.RegisterExporter(&Plugin{})
}
