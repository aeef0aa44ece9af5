// Package config holds the application configuration loaded from
// environment variables.
package config

// Config is the top-level process configuration.
type Config struct {
	// SourcePlugin is the name of the order source plugin to use.
	// Environment variable: ORDERFALL_SOURCE
	SourcePlugin string `koanf:"ORDERFALL_SOURCE"`

	// ExporterPlugin is the name of the exporter plugin to use.
	// Environment variable: ORDERFALL_EXPORTER
	ExporterPlugin string `koanf:"ORDERFALL_EXPORTER"`

	// SourceConfig is the JSON configuration for the source plugin.
	// Environment variable: ORDERFALL_SOURCE_CONFIG
	SourceConfig string `koanf:"ORDERFALL_SOURCE_CONFIG"`

	// ExporterConfig is the JSON configuration for the exporter plugin.
	// Environment variable: ORDERFALL_EXPORTER_CONFIG
	ExporterConfig string `koanf:"ORDERFALL_EXPORTER_CONFIG"`

	// RulesFile is the path to the rules JSON file.
	// Environment variable: ORDERFALL_RULES_FILE
	RulesFile string `koanf:"ORDERFALL_RULES_FILE"`

	// BaseAmount selects the waterfall base: "subtotal" (default) or
	// "total". Environment variable: ORDERFALL_BASE_AMOUNT
	BaseAmount string `koanf:"ORDERFALL_BASE_AMOUNT"`

	// StartDate and EndDate bound the fetched order range (YYYY-MM-DD).
	StartDate string `koanf:"ORDERFALL_START_DATE"`
	EndDate   string `koanf:"ORDERFALL_END_DATE"`

	// Workers bounds parallel breakdown calculation. Zero keeps it
	// sequential. Environment variable: ORDERFALL_WORKERS
	Workers int `koanf:"ORDERFALL_WORKERS"`

	Shopify  ShopifyConfig
	Postgres PostgresConfig
	Sheets   SheetsConfig
}

// ShopifyConfig holds Shopify Admin API credentials. When both fields are
// empty the dummy source is used instead.
type ShopifyConfig struct {
	ShopDomain  string `koanf:"SHOPIFY_SHOP_DOMAIN"`
	AccessToken string `koanf:"SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string `koanf:"SHOPIFY_API_VERSION"`
}

// PostgresConfig holds PostgreSQL connection configuration for the
// postgres exporter.
type PostgresConfig struct {
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// SheetsConfig holds Google Sheets export configuration.
type SheetsConfig struct {
	Title string `koanf:"GSHEETS_TITLE"`
	ID    string `koanf:"GSHEETS_ID"`
}
