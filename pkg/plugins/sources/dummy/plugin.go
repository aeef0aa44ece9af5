// Package dummy registers the sample-order source as a plugin.
package dummy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/source/dummy"
)

// Plugin implements plugins.SourcePlugin for the sample-order generator.
type Plugin struct{}

type pluginConfig struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Count     int    `json:"count,omitempty"`
	Seed      int64  `json:"seed,omitempty"`
}

func (p *Plugin) Name() string {
	return "dummy"
}

func (p *Plugin) Description() string {
	return "Generates sample orders for offline runs and testing"
}

func (p *Plugin) RequiredScopes() []string {
	return nil
}

func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_date": map[string]any{"type": "string", "description": "Inclusive start date, YYYY-MM-DD"},
			"end_date":   map[string]any{"type": "string", "description": "Inclusive end date, YYYY-MM-DD"},
			"count":      map[string]any{"type": "integer", "description": "Number of orders to generate"},
			"seed":       map[string]any{"type": "integer", "description": "Random seed for reproducible output"},
		},
		"required": []string{"start_date", "end_date"},
	}
}

func (p *Plugin) NewSource(_ *http.Client, config json.RawMessage, logger *slog.Logger) (api.Source, error) {
	var cfg pluginConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing dummy source config: %w", err)
	}

	return dummy.New(dummy.Config{
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		Count:     cfg.Count,
		Seed:      cfg.Seed,
	}, logger)
}

// Register adds the plugin to the registry.
func Register(r *plugins.Registry) error {
	return r.RegisterSource(&Plugin{})
}
