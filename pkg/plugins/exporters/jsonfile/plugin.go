// Package jsonfile registers the JSON file exporter as a plugin.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/jsonfile"
)

// Plugin implements plugins.ExporterPlugin for JSON files.
type Plugin struct{}

type pluginConfig struct {
	FilePath      string `json:"file_path"`
	BatchSize     int    `json:"batch_size,omitempty"`
	FlushInterval int    `json:"flush_interval,omitempty"`
}

func (p *Plugin) Name() string {
	return "json"
}

func (p *Plugin) Description() string {
	return "Appends breakdowns to a JSON array file"
}

func (p *Plugin) RequiredScopes() []string {
	return nil
}

func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path":      map[string]any{"type": "string", "description": "Path to the JSON output file"},
			"batch_size":     map[string]any{"type": "integer", "description": "Breakdowns buffered per write"},
			"flush_interval": map[string]any{"type": "integer", "description": "Seconds between automatic flushes"},
		},
		"required": []string{"file_path"},
	}
}

func (p *Plugin) NewExporter(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg pluginConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing json exporter config: %w", err)
	}

	return jsonfile.New(jsonfile.Config{
		FilePath:      cfg.FilePath,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger)
}

// Register adds the plugin to the registry.
func Register(r *plugins.Registry) error {
	return r.RegisterExporter(&Plugin{})
}
