// Package plugins provides a plugin registry for order sources and
// breakdown exporters.
package plugins

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/orderfall/orderfall/pkg/api"
)

// Plugin is the metadata surface shared by every plugin kind.
type Plugin interface {
	// Name returns the plugin name (e.g., "shopify", "csv").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
}

// SourcePlugin constructs order sources.
type SourcePlugin interface {
	Plugin
	// NewSource creates a new source instance with the given config.
	NewSource(httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Source, error)
}

// ExporterPlugin constructs breakdown exporters.
type ExporterPlugin interface {
	Plugin
	// NewExporter creates a new exporter instance with the given config.
	NewExporter(httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error)
}

// Registry manages available source and exporter plugins.
type Registry struct {
	sources   map[string]SourcePlugin
	exporters map[string]ExporterPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		sources:   make(map[string]SourcePlugin),
		exporters: make(map[string]ExporterPlugin),
	}
}

// RegisterSource registers a source plugin.
func (r *Registry) RegisterSource(plugin SourcePlugin) error {
	name := plugin.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source plugin %q already registered", name)
	}
	r.sources[name] = plugin
	return nil
}

// RegisterExporter registers an exporter plugin.
func (r *Registry) RegisterExporter(plugin ExporterPlugin) error {
	name := plugin.Name()
	if _, exists := r.exporters[name]; exists {
		return fmt.Errorf("exporter plugin %q already registered", name)
	}
	r.exporters[name] = plugin
	return nil
}

// GetSource returns a source plugin by name.
func (r *Registry) GetSource(name string) (SourcePlugin, error) {
	plugin, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source plugin %q not found", name)
	}
	return plugin, nil
}

// GetExporter returns an exporter plugin by name.
func (r *Registry) GetExporter(name string) (ExporterPlugin, error) {
	plugin, exists := r.exporters[name]
	if !exists {
		return nil, fmt.Errorf("exporter plugin %q not found", name)
	}
	return plugin, nil
}

// ListSources returns all registered source plugins.
func (r *Registry) ListSources() []SourcePlugin {
	plugins := make([]SourcePlugin, 0, len(r.sources))
	for _, plugin := range r.sources {
		plugins = append(plugins, plugin)
	}
	return plugins
}

// ListExporters returns all registered exporter plugins.
func (r *Registry) ListExporters() []ExporterPlugin {
	plugins := make([]ExporterPlugin, 0, len(r.exporters))
	for _, plugin := range r.exporters {
		plugins = append(plugins, plugin)
	}
	return plugins
}

// ScopesFor returns the deduplicated, sorted OAuth scopes the selected
// plugins require. An empty result means no OAuth client is needed for
// this run.
func ScopesFor(selected ...Plugin) []string {
	scopeSet := make(map[string]struct{})
	for _, plugin := range selected {
		for _, scope := range plugin.RequiredScopes() {
			scopeSet[scope] = struct{}{}
		}
	}

	scopes := make([]string, 0, len(scopeSet))
	for scope := range scopeSet {
		scopes = append(scopes, scope)
	}
	slices.Sort(scopes)
	return scopes
}

// CreateSource creates a source instance from a plugin.
func (r *Registry) CreateSource(name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Source, error) {
	plugin, err := r.GetSource(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewSource(httpClient, config, logger)
}

// CreateExporter creates an exporter instance from a plugin.
func (r *Registry) CreateExporter(name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	plugin, err := r.GetExporter(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewExporter(httpClient, config, logger)
}
