// Package csv registers the CSV file exporter as a plugin.
package csv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/csv"
)

// Plugin implements plugins.ExporterPlugin for CSV files.
type Plugin struct{}

type pluginConfig struct {
	FilePath string `json:"file_path"`
}

func (p *Plugin) Name() string {
	return "csv"
}

func (p *Plugin) Description() string {
	return "Writes breakdowns to a CSV file with per-label and per-tax columns"
}

func (p *Plugin) RequiredScopes() []string {
	return nil
}

func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{"type": "string", "description": "Path to the CSV output file"},
		},
		"required": []string{"file_path"},
	}
}

func (p *Plugin) NewExporter(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg pluginConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing csv exporter config: %w", err)
	}

	return csv.New(csv.Config{FilePath: cfg.FilePath}, logger)
}

// Register adds the plugin to the registry.
func Register(r *plugins.Registry) error {
	return r.RegisterExporter(&Plugin{})
}
