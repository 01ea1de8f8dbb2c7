package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Store    StoreConfig    `mapstructure:"store"`
	Export   ExportConfig   `mapstructure:"export"`
	Notion   NotionConfig   `mapstructure:"notion"`
	Server   ServerConfig   `mapstructure:"server"`
}

// ProviderConfig holds connection settings for the transaction feed.
// Secrets come from environment variables named by the *_env fields so
// the config file never carries credentials.
type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	ClientIDEnv    string `mapstructure:"client_id_env"`
	SecretEnv      string `mapstructure:"secret_env"`
	AccessTokenEnv string `mapstructure:"access_token_env"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"` // "memory" or "bigquery"
	ProjectID string `mapstructure:"project_id"`
	DatasetID string `mapstructure:"dataset_id"`
	ItemID    string `mapstructure:"item_id"`
}

// ExportConfig configures CSV snapshot exports.
type ExportConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// NotionConfig configures the optional Notion mirror.
type NotionConfig struct {
	TokenEnv   string `mapstructure:"token_env"`
	DatabaseID string `mapstructure:"database_id"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	QueueBufferSize int `mapstructure:"queue_buffer_size"`
}

// LoadConfig loads configuration from file and environment variables.
// Environment variables override file values using the MIRROR_ prefix,
// e.g. MIRROR_SERVER_PORT overrides server.port.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.SetEnvPrefix("MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("provider.base_url", "https://sandbox.plaid.com")
	v.SetDefault("provider.client_id_env", "PLAID_CLIENT_ID")
	v.SetDefault("provider.secret_env", "PLAID_SECRET")
	v.SetDefault("provider.access_token_env", "PLAID_ACCESS_TOKEN")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.item_id", "default")
	v.SetDefault("notion.token_env", "NOTION_TOKEN")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.queue_buffer_size", 16)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "bigquery":
		if c.Store.ProjectID == "" || c.Store.DatasetID == "" {
			return fmt.Errorf("store backend %q requires project_id and dataset_id", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}
