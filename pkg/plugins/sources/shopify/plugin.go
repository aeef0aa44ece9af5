// Package shopify registers the Shopify order source as a plugin.
package shopify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/orderfall/orderfall/internal/plugins"
	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/source/shopify"
)

// Plugin implements plugins.SourcePlugin for the Shopify Admin API.
type Plugin struct{}

type pluginConfig struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
	APIVersion  string `json:"api_version,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	PageSize    int    `json:"page_size,omitempty"`
}

func (p *Plugin) Name() string {
	return "shopify"
}

func (p *Plugin) Description() string {
	return "Fetches orders from the Shopify Admin GraphQL API"
}

// RequiredScopes is empty; Shopify authenticates with an access token
// header, not OAuth through the shared client.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shop_domain":  map[string]any{"type": "string", "description": "myshopify.com shop domain"},
			"access_token": map[string]any{"type": "string", "description": "Admin API access token"},
			"api_version":  map[string]any{"type": "string", "description": "Admin API version, e.g. 2025-10"},
			"start_date":   map[string]any{"type": "string", "description": "Inclusive start date, YYYY-MM-DD"},
			"end_date":     map[string]any{"type": "string", "description": "Inclusive end date, YYYY-MM-DD"},
			"page_size":    map[string]any{"type": "integer", "description": "Initial orders per page"},
		},
		"required": []string{"shop_domain", "access_token", "start_date", "end_date"},
	}
}

func (p *Plugin) NewSource(httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Source, error) {
	var cfg pluginConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, fmt.Errorf("parsing shopify source config: %w", err)
	}

	return shopify.New(httpClient, shopify.Config{
		ShopDomain:  cfg.ShopDomain,
		AccessToken: cfg.AccessToken,
		APIVersion:  cfg.APIVersion,
		StartDate:   cfg.StartDate,
		EndDate:     cfg.EndDate,
		PageSize:    cfg.PageSize,
	}, logger)
}

// Register adds the plugin to the registry.
func Register(r *plugins.Registry) error {
	return r.RegisterSource(&Plugin{})
}
