// Package sheets registers the Google Sheets exporter as a plugin.
package sheets

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/sheets"
)

// Plugin implements plugins.ExporterPlugin for Google Sheets.
type Plugin struct{}

type pluginConfig struct {
	SpreadsheetTitle string `json:"spreadsheet_title,omitempty"`
	SpreadsheetID    string `json:"spreadsheet_id,omitempty"`
}

func (p *Plugin) Name() string {
	return "sheets"
}

func (p *Plugin) Description() string {
	return "Writes breakdowns to a Google Sheets spreadsheet, one sheet per month"
}

func (p *Plugin) RequiredScopes() []string {
	return []string{sheetsapi.SpreadsheetsScope}
}

func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"spreadsheet_title": map[string]any{"type": "string", "description": "Title for a newly created spreadsheet"},
			"spreadsheet_id":    map[string]any{"type": "string", "description": "ID of an existing spreadsheet to update"},
		},
	}
}

func (p *Plugin) NewExporter(httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg pluginConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sheets exporter config: %w", err)
	}

	return sheets.New(httpClient, sheets.Config{
		SpreadsheetTitle: cfg.SpreadsheetTitle,
		SpreadsheetID:    cfg.SpreadsheetID,
	}, logger)
}

// Register adds the plugin to the registry.
func Register(r *plugins.Registry) error {
	return r.RegisterExporter(&Plugin{})
}
